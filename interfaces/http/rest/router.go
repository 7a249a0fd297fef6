package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/infrastructure/config"
	"synapse-backend/interfaces/http/rest/handlers"
	"synapse-backend/interfaces/http/rest/middleware"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/common"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg         *config.Config
	nodes       *services.NodeService
	connections *services.ConnectionService
	clusters    *services.ClusterService
	search      *services.SearchService
	graph       *services.GraphService
	validator   *auth.JWTValidator
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	nodes *services.NodeService,
	connections *services.ConnectionService,
	clusters *services.ClusterService,
	search *services.SearchService,
	graph *services.GraphService,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		nodes:       nodes,
		connections: connections,
		clusters:    clusters,
		search:      search,
		graph:       graph,
		validator:   validator,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)

	authCfg := middleware.AuthConfig{
		Validator:           rt.validator,
		TrustGatewayHeaders: rt.cfg.IsLambda,
	}
	if rt.cfg.RateLimitPerIP > 0 {
		authCfg.IPLimiter = auth.NewIPRateLimiter(rt.cfg.RateLimitPerIP)
	}
	if rt.cfg.RateLimitPerUser > 0 {
		authCfg.UserLimiter = auth.NewUserRateLimiter(rt.cfg.RateLimitPerUser)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(authCfg))

		nodeHandler := handlers.NewNodeHandler(rt.nodes, rt.logger)
		connectionHandler := handlers.NewConnectionHandler(rt.connections, rt.logger)
		clusterHandler := handlers.NewClusterHandler(rt.clusters, rt.logger)
		searchHandler := handlers.NewSearchHandler(rt.search, rt.logger)
		graphHandler := handlers.NewGraphHandler(rt.graph, rt.logger)

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", nodeHandler.CreateNode)
			r.Get("/", nodeHandler.ListNodes)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Put("/{nodeID}", nodeHandler.UpdateNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
			r.Get("/{nodeID}/connections", connectionHandler.ListConnections)
			r.Get("/{nodeID}/related", graphHandler.GetRelatedNodes)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Post("/", connectionHandler.CreateConnection)
			r.Put("/{connectionID}", connectionHandler.UpdateConnection)
			r.Delete("/{connectionID}", connectionHandler.DeleteConnection)
		})

		r.Route("/clusters", func(r chi.Router) {
			r.Post("/", clusterHandler.CreateCluster)
			r.Get("/", clusterHandler.ListClusters)
			r.Get("/{clusterID}", clusterHandler.GetCluster)
			r.Delete("/{clusterID}", clusterHandler.DeleteCluster)
		})

		r.Get("/search", searchHandler.Search)
		r.Get("/graph", graphHandler.GetKnowledgeGraph)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
