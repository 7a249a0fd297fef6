package middleware

import (
	"net"
	"net/http"
	"strings"

	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/common"
)

// AuthConfig wires the authentication middleware
type AuthConfig struct {
	Validator *auth.JWTValidator

	// TrustGatewayHeaders accepts identity headers injected by an API
	// Gateway JWT authorizer instead of validating the token again.
	// Only enable behind a gateway that strips client-supplied copies.
	TrustGatewayHeaders bool

	IPLimiter   *auth.RateLimiter
	UserLimiter *auth.RateLimiter
}

// Authenticate validates the bearer token and puts the user identity
// on the request context. Rate limits apply per IP before
// authentication and per user after.
func Authenticate(cfg AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.IPLimiter != nil {
				allowed, _ := cfg.IPLimiter.Allow(r.Context(), clientIP(r))
				if !allowed {
					common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
					return
				}
			}

			user, ok := resolveUser(cfg, r)
			if !ok {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
				return
			}

			if cfg.UserLimiter != nil {
				allowed, _ := cfg.UserLimiter.Allow(r.Context(), user.UserID)
				if !allowed {
					common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

func resolveUser(cfg AuthConfig, r *http.Request) (*auth.UserContext, bool) {
	if cfg.TrustGatewayHeaders {
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			return &auth.UserContext{
				UserID: userID,
				Email:  r.Header.Get("X-User-Email"),
			}, true
		}
	}

	if cfg.Validator == nil {
		return nil, false
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims, err := cfg.Validator.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}
	return &auth.UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, true
}

// clientIP prefers the forwarded chain's first hop, set by the load
// balancer, over the socket address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
