package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse-backend/domain/knowledge"
)

func mustNode(t *testing.T, title, body string, tags []string) *knowledge.Node {
	t.Helper()
	node, err := knowledge.NewNode("user-123", knowledge.NodeAttributes{
		Title: title,
		Body:  body,
		Type:  knowledge.TypeNote,
		Tags:  tags,
	})
	require.NoError(t, err)
	return node
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "filters short words",
			text:     "the cat sat on deep work principles",
			expected: []string{"deep", "work", "principles"},
		},
		{
			name:     "lowercases and strips punctuation",
			text:     "Focus, Depth! (Productivity)",
			expected: []string{"focus", "depth", "productivity"},
		},
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
		{
			name:     "deduplicates repeated words",
			text:     "focus focus FOCUS focus",
			expected: []string{"focus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.text)
			assert.Len(t, tokens, len(tt.expected))
			for _, word := range tt.expected {
				assert.True(t, tokens[word], "expected token %q", word)
			}
		})
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(nil)

	t.Run("identical bodies and tags score 1", func(t *testing.T) {
		a := mustNode(t, "A", "distributed systems consensus algorithms", []string{"systems"})
		b := mustNode(t, "B", "distributed systems consensus algorithms", []string{"systems"})

		result := scorer.Score(a, b)
		assert.InDelta(t, 1.0, result.Score, 1e-9)
	})

	t.Run("no overlap scores 0", func(t *testing.T) {
		a := mustNode(t, "A", "gardening tomatoes outdoors", []string{"hobby"})
		b := mustNode(t, "B", "quantum computing qubits", []string{"physics"})

		result := scorer.Score(a, b)
		assert.Zero(t, result.Score)
	})

	t.Run("shared focus crosses the auto-link threshold", func(t *testing.T) {
		a := mustNode(t, "Deep Work",
			"Cal Newport on focus and depth",
			[]string{"focus", "productivity"})
		b := mustNode(t, "Flow State",
			"Csikszentmihalyi on focus and optimal experience",
			[]string{"focus", "psychology"})

		result := scorer.Score(a, b)

		// tag overlap is 1 of 2, word overlap is positive
		assert.InDelta(t, 0.5, result.TagScore, 1e-9)
		assert.Greater(t, result.WordScore, 0.0)
		assert.Greater(t, result.Score, AutoLinkThreshold)
	})

	t.Run("both bodies empty of long tokens", func(t *testing.T) {
		a := mustNode(t, "A", "a b c", []string{"x"})
		b := mustNode(t, "B", "d e f", []string{"x"})

		result := scorer.Score(a, b)
		assert.Zero(t, result.WordScore)
		assert.InDelta(t, 1.0, result.TagScore, 1e-9)
		assert.InDelta(t, 0.3, result.Score, 1e-9)
	})
}

func TestKeywordClassifier(t *testing.T) {
	classifier := NewKeywordClassifier()

	tests := []struct {
		name     string
		bodyA    string
		bodyB    string
		expected knowledge.ConnectionType
	}{
		{
			name:     "however marks contradiction",
			bodyA:    "deep focus matters; however context switching destroys it",
			bodyB:    "some other idea",
			expected: knowledge.ConnectionContradicts,
		},
		{
			name:     "contradiction outranks support when both appear",
			bodyA:    "this supports the claim but also qualifies it",
			bodyB:    "neutral text",
			expected: knowledge.ConnectionContradicts,
		},
		{
			name:     "confirms marks support",
			bodyA:    "the replication study confirms the original finding",
			bodyB:    "neutral text",
			expected: knowledge.ConnectionSupports,
		},
		{
			name:     "example marker in either body",
			bodyA:    "neutral text",
			bodyB:    "a concrete example of spaced repetition",
			expected: knowledge.ConnectionExampleOf,
		},
		{
			name:     "builds on marker",
			bodyA:    "this idea builds on the earlier framework",
			bodyB:    "neutral text",
			expected: knowledge.ConnectionBuildsOn,
		},
		{
			name:     "no marker falls back to related",
			bodyA:    "plain descriptive text",
			bodyB:    "more plain text",
			expected: knowledge.ConnectionRelated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustNode(t, "A", tt.bodyA, nil)
			b := mustNode(t, "B", tt.bodyB, nil)
			assert.Equal(t, tt.expected, classifier.Classify(a, b))
		})
	}
}
