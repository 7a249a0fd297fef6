package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/similarity"
	pkgerrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/observability"
)

const (
	// DefaultSearchLimit caps result sets when the caller gives none
	DefaultSearchLimit = 50

	// snippetLength is the body excerpt size returned with each hit
	snippetLength = 200

	// snippetLeadIn is how far before the first token hit the excerpt starts
	snippetLeadIn = 50

	titleHitWeight      = 3.0
	bodyHitWeight       = 1.0
	importanceWeight    = 0.1
	accessRecencyWeight = 0.1
)

// SearchService ranks a requester's nodes against a free-text query.
// Matching is lexical: a coarse substring pre-filter followed by
// token-hit scoring weighted toward titles, importance, and access
// frequency.
type SearchService struct {
	nodeRepo ports.NodeRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewSearchService creates a search service
func NewSearchService(nodeRepo ports.NodeRepository, metrics *observability.Metrics, logger *zap.Logger) *SearchService {
	return &SearchService{
		nodeRepo: nodeRepo,
		metrics:  metrics,
		logger:   logger,
	}
}

// SearchOptions narrows the candidate set before scoring
type SearchOptions struct {
	Types      []string
	Categories []string
	Tags       []string
	Limit      int
}

// SearchResult is one ranked hit
type SearchResult struct {
	Node             *knowledge.Node
	RelevanceScore   float64
	Snippet          string
	HighlightedTerms []string
}

// Search returns the requester's nodes ranked by relevance to the
// query. Empty and whitespace-only queries are rejected.
func (s *SearchService) Search(ctx context.Context, requesterID, query string, opts SearchOptions) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.NewValidationError("search query cannot be empty")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	start := time.Now()
	nodes, err := s.nodeRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	tokens := sortedTokens(similarity.Tokenize(query))

	results := make([]SearchResult, 0, limit)
	for _, node := range nodes {
		if !matchesOptions(node, opts) {
			continue
		}

		titleLower := strings.ToLower(node.Title())
		bodyLower := strings.ToLower(node.Body())

		// Coarse pre-filter: the raw query must appear somewhere
		if !strings.Contains(titleLower, queryLower) && !strings.Contains(bodyLower, queryLower) {
			continue
		}

		titleHits, bodyHits := 0, 0
		highlighted := make([]string, 0, len(tokens))
		for _, token := range tokens {
			inTitle := strings.Contains(titleLower, token)
			inBody := strings.Contains(bodyLower, token)
			if inTitle {
				titleHits++
			}
			if inBody {
				bodyHits++
			}
			if inTitle || inBody {
				highlighted = append(highlighted, token)
			}
		}

		score := titleHitWeight*float64(titleHits) +
			bodyHitWeight*float64(bodyHits) +
			importanceWeight*float64(node.Importance()) +
			accessRecencyWeight*math.Log(float64(node.AccessCount())+1)

		results = append(results, SearchResult{
			Node:             node,
			RelevanceScore:   score,
			Snippet:          buildSnippet(node.Body(), bodyLower, tokens),
			HighlightedTerms: highlighted,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Node.LastAccessedAt().After(results[j].Node.LastAccessedAt())
	})

	if len(results) > limit {
		results = results[:limit]
	}

	s.metrics.RecordDuration(ctx, "SearchLatency", time.Since(start), nil)
	s.logger.Debug("search executed",
		zap.String("owner_id", requesterID),
		zap.Int("candidates", len(nodes)),
		zap.Int("results", len(results)))

	return results, nil
}

// buildSnippet extracts up to 200 characters of body around the
// earliest query-token occurrence, with ellipses marking truncation.
// Falls back to the leading 200 characters when no token matches.
func buildSnippet(body, bodyLower string, tokens []string) string {
	earliest := -1
	for _, token := range tokens {
		if idx := strings.Index(bodyLower, token); idx >= 0 && (earliest == -1 || idx < earliest) {
			earliest = idx
		}
	}

	start := 0
	if earliest > snippetLeadIn {
		start = earliest - snippetLeadIn
	}
	// window edges must not split a multibyte rune
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}

	end := start + snippetLength
	if end > len(body) {
		end = len(body)
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}

	snippet := body[start:end]
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(body) {
		snippet += "…"
	}
	return snippet
}

func matchesOptions(node *knowledge.Node, opts SearchOptions) bool {
	if len(opts.Types) > 0 && !containsFold(opts.Types, string(node.Type())) {
		return false
	}
	if len(opts.Categories) > 0 && !containsFold(opts.Categories, node.Category()) {
		return false
	}
	if len(opts.Tags) > 0 {
		found := false
		for _, tag := range opts.Tags {
			if node.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, item := range haystack {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}

// sortedTokens gives the token set a stable order so scoring and
// highlighting are deterministic
func sortedTokens(set map[string]bool) []string {
	tokens := make([]string, 0, len(set))
	for token := range set {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
