package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktagon/ai-weekly/internal/content"
)

func sampleItems() []content.Item {
	return []content.Item{
		{Slug: "evals", Title: "Agent Evals in Practice", Score: 9, Tags: []string{"agents", "eval"}, Body: "Benchmarks for tool-using models."},
		{Slug: "rag", Title: "Retrieval Notes", Score: 8, Tags: []string{"rag", "Search-Infra"}, Body: "Chunking strategies and rerankers."},
		{Slug: "cli", Title: "Terminal tooling roundup", Score: 5, Tags: []string{"tooling"}, Evidence: "anecdotal", Body: "A tour of shell helpers."},
	}
}

func TestMatch(t *testing.T) {
	item := sampleItems()[1]

	tests := []struct {
		query string
		want  bool
	}{
		{"retrieval", true},
		{"  NOTES  ", true},
		{"search-infra", true},
		{"rag search", true},
		{"chunking", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(item, tt.query))
		})
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	items := sampleItems()

	got := Filter(items, "t")
	var slugs []string
	for _, it := range got {
		slugs = append(slugs, it.Slug)
	}
	assert.Equal(t, []string{"evals", "rag", "cli"}, slugs)

	assert.Empty(t, Filter(items, ""))
	assert.Empty(t, Filter(items, "nothing matches this"))
}

func TestIndexSearch(t *testing.T) {
	idx, err := NewIndex(sampleItems())
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Search("rerankers", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "rag", hits[0].Slug)
	assert.Equal(t, "Retrieval Notes", hits[0].Title)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Greater(t, hits[0].Score, 0.0)

	hits, err = idx.Search("tooling", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "cli", hits[0].Slug)

	hits, err = idx.Search("anecdotal", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "cli", hits[0].Slug)
}

func TestIndexSearchEmptyQuery(t *testing.T) {
	idx, err := NewIndex(sampleItems())
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search("  ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexSearchLimit(t *testing.T) {
	var items []content.Item
	for _, slug := range []string{"a", "b", "c", "d"} {
		items = append(items, content.Item{Slug: slug, Title: "shared word " + slug})
	}
	idx, err := NewIndex(items)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search("shared", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, 2, hits[1].Rank)
}
