package similarity

import (
	"strings"

	"synapse-backend/domain/knowledge"
)

// RelationClassifier infers the semantic relation between two nodes.
// Implementations range from lexical marker matching to external NLP
// services; the scorer only needs the interface.
type RelationClassifier interface {
	Classify(a, b *knowledge.Node) knowledge.ConnectionType
}

// KeywordClassifier infers the relation from lexical markers present in
// either body. Markers are checked in priority order and the first
// match wins.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default marker-based classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify scans both bodies for relation markers
func (c *KeywordClassifier) Classify(a, b *knowledge.Node) knowledge.ConnectionType {
	combined := strings.ToLower(a.Body() + " " + b.Body())

	switch {
	case strings.Contains(combined, "however") || strings.Contains(combined, "but"):
		return knowledge.ConnectionContradicts
	case strings.Contains(combined, "supports") || strings.Contains(combined, "confirms"):
		return knowledge.ConnectionSupports
	case strings.Contains(combined, "example"):
		return knowledge.ConnectionExampleOf
	case strings.Contains(combined, "builds on"):
		return knowledge.ConnectionBuildsOn
	default:
		return knowledge.ConnectionRelated
	}
}
