// Package similarity scores how related two knowledge nodes are based
// on shared body vocabulary and tag overlap. The measure is a lexical
// heuristic, not semantic understanding; false positives and negatives
// are expected and acceptable.
package similarity

import (
	"strings"

	"synapse-backend/domain/knowledge"
)

const (
	// wordWeight and tagWeight combine the two overlap measures into
	// the final score
	wordWeight = 0.7
	tagWeight  = 0.3

	// minTokenLength filters out short function words before comparison
	minTokenLength = 3

	// AutoLinkThreshold is the fixed score above which the auto-linker
	// creates a connection between two nodes
	AutoLinkThreshold = 0.3
)

// Result carries the outcome of scoring one node pair
type Result struct {
	Score        float64
	WordScore    float64
	TagScore     float64
	RelationType knowledge.ConnectionType
}

// Scorer computes similarity between node pairs using a pluggable
// relation classifier
type Scorer struct {
	classifier RelationClassifier
}

// NewScorer creates a scorer. A nil classifier falls back to the
// keyword-marker classifier.
func NewScorer(classifier RelationClassifier) *Scorer {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Scorer{classifier: classifier}
}

// Score computes the combined similarity of two nodes:
// 0.7 x word overlap of their bodies plus 0.3 x tag overlap.
func (s *Scorer) Score(a, b *knowledge.Node) Result {
	wordScore := wordSimilarity(a.Body(), b.Body())
	tagScore := tagSimilarity(a.Tags(), b.Tags())

	return Result{
		Score:        wordWeight*wordScore + tagWeight*tagScore,
		WordScore:    wordScore,
		TagScore:     tagScore,
		RelationType: s.classifier.Classify(a, b),
	}
}

// wordSimilarity measures body vocabulary overlap: shared tokens over
// the larger token set, 0 when both bodies are empty
func wordSimilarity(bodyA, bodyB string) float64 {
	wordsA := Tokenize(bodyA)
	wordsB := Tokenize(bodyB)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for word := range wordsA {
		if wordsB[word] {
			shared++
		}
	}

	max := len(wordsA)
	if len(wordsB) > max {
		max = len(wordsB)
	}
	if max == 0 {
		return 0
	}
	return float64(shared) / float64(max)
}

// tagSimilarity measures tag overlap over the larger tag set, treating
// tags case-insensitively
func tagSimilarity(tagsA, tagsB []string) float64 {
	setA := toLowerSet(tagsA)
	setB := toLowerSet(tagsB)

	shared := 0
	for tag := range setA {
		if setB[tag] {
			shared++
		}
	}

	max := len(setA)
	if len(setB) > max {
		max = len(setB)
	}
	if max == 0 {
		max = 1
	}
	return float64(shared) / float64(max)
}

// Tokenize extracts the set of lowercase word tokens longer than three
// characters from a text
func Tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if len(word) > minTokenLength {
			tokens[word] = true
		}
	}
	return tokens
}

func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			set[item] = true
		}
	}
	return set
}
