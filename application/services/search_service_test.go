package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "synapse-backend/pkg/errors"
)

func TestSearchService_Search(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := f.search.Search(ctx, owner, "   ", SearchOptions{})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("title hits outrank body hits", func(t *testing.T) {
		f := newFixture()
		titleHit, err := f.nodes.CreateNode(ctx, owner, CreateNodeInput{
			Title: "Focus techniques", Body: "various methods reviewed", Type: "note",
		})
		require.NoError(t, err)
		bodyHit, err := f.nodes.CreateNode(ctx, owner, CreateNodeInput{
			Title: "Morning routine", Body: "start the day with deliberate focus", Type: "note",
		})
		require.NoError(t, err)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, titleHit.ID().String(), results[0].Node.ID().String())
		assert.Equal(t, bodyHit.ID().String(), results[1].Node.ID().String())
		assert.Greater(t, results[0].RelevanceScore, results[1].RelevanceScore)
	})

	t.Run("raw substring pre-filter excludes non-matches", func(t *testing.T) {
		f := newFixture()
		f.createNode(t, owner, "Focus", "attention and depth", nil)
		f.createNode(t, owner, "Cooking", "pasta recipes", nil)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Focus", results[0].Node.Title())
	})

	t.Run("options narrow the candidate set", func(t *testing.T) {
		f := newFixture()
		_, err := f.nodes.CreateNode(ctx, owner, CreateNodeInput{
			Title: "Focus article", Body: "attention span research", Type: "article", Tags: []string{"science"},
		})
		require.NoError(t, err)
		_, err = f.nodes.CreateNode(ctx, owner, CreateNodeInput{
			Title: "Focus note", Body: "personal attention notes", Type: "note", Tags: []string{"journal"},
		})
		require.NoError(t, err)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{Types: []string{"article"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Focus article", results[0].Node.Title())

		results, err = f.search.Search(ctx, owner, "focus", SearchOptions{Tags: []string{"journal"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Focus note", results[0].Node.Title())
	})

	t.Run("highlighted terms are the matching tokens", func(t *testing.T) {
		f := newFixture()
		// the whole raw query must appear somewhere for the pre-filter
		f.createNode(t, owner, "Deep Work summary", "deliberate deep focus beats shallow multitasking", nil)

		results, err := f.search.Search(ctx, owner, "deep focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.ElementsMatch(t, []string{"deep", "focus"}, results[0].HighlightedTerms)
	})

	t.Run("limit caps results", func(t *testing.T) {
		f := newFixture()
		for i := 0; i < 5; i++ {
			f.createNode(t, owner, "Focus entry", "repeated focus material", nil)
		}

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{Limit: 3})
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}

func TestSearchService_Snippets(t *testing.T) {
	ctx := context.Background()

	t.Run("short body returned whole", func(t *testing.T) {
		f := newFixture()
		f.createNode(t, owner, "Note", "brief focus note", nil)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "brief focus note", results[0].Snippet)
	})

	t.Run("window opens before the first hit with ellipses", func(t *testing.T) {
		f := newFixture()
		padding := strings.Repeat("xy ", 100)
		f.createNode(t, owner, "Note", padding+"focus appears late in this body "+padding, nil)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)

		snippet := results[0].Snippet
		assert.True(t, strings.HasPrefix(snippet, "…"))
		assert.True(t, strings.HasSuffix(snippet, "…"))
		assert.Contains(t, snippet, "focus")
	})

	t.Run("window edges stay on rune boundaries", func(t *testing.T) {
		f := newFixture()
		body := strings.Repeat("日本語", 20) + " focus " + strings.Repeat("日本語", 40)
		f.createNode(t, owner, "Note", body, nil)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, utf8.ValidString(results[0].Snippet))
		assert.Contains(t, results[0].Snippet, "focus")
	})

	t.Run("no token hit falls back to the leading excerpt", func(t *testing.T) {
		f := newFixture()
		// raw query matches the title only, so the body has no token hit
		f.createNode(t, owner, "All about focus", strings.Repeat("something else entirely ", 20), nil)

		results, err := f.search.Search(ctx, owner, "focus", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, strings.HasPrefix(results[0].Snippet, "something else"))
		assert.True(t, strings.HasSuffix(results[0].Snippet, "…"))
	})
}
