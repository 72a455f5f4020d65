// Package search finds digest items by text.
//
// Match and Filter implement the site's search box: a case-insensitive
// substring test over titles and tags. Index answers free-text queries from
// the command line with a bleve in-memory index over the full item text.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve"

	"github.com/aktagon/ai-weekly/internal/content"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Match reports whether item matches query. The query is trimmed and
// lower-cased; an empty query matches nothing.
func Match(item content.Item, query string) bool {
	q := normalizeQuery(query)
	if q == "" {
		return false
	}
	return matches(item, q)
}

// Filter returns the items matching query, in input order.
func Filter(items []content.Item, query string) []content.Item {
	q := normalizeQuery(query)
	out := []content.Item{}
	if q == "" {
		return out
	}
	for _, it := range items {
		if matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func matches(item content.Item, q string) bool {
	if strings.Contains(strings.ToLower(item.Title), q) {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(item.Tags, " ")), q)
}

// Hit is one ranked search result.
type Hit struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

type document struct {
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	Evidence string   `json:"evidence"`
	Body     string   `json:"body"`
}

// Index is an in-memory full-text index of items.
type Index struct {
	bleve bleve.Index
	items map[string]content.Item
}

// NewIndex indexes items in a single batch.
func NewIndex(items []content.Item) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	byslug := make(map[string]content.Item, len(items))
	batch := idx.NewBatch()
	for _, it := range items {
		byslug[it.Slug] = it
		doc := document{
			Title:    it.Title,
			Tags:     it.Tags,
			Evidence: it.Evidence,
			Body:     it.Body,
		}
		if err := batch.Index(it.Slug, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("indexing %s: %w", it.Slug, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("indexing items: %w", err)
	}

	return &Index{bleve: idx, items: byslug}, nil
}

// Search runs a query string query (bleve syntax, e.g. `+tags:agents eval`)
// and returns up to limit hits, best first. A non-positive limit means
// DefaultLimit; limits above MaxLimit are capped.
func (x *Index) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	res, err := x.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for i, h := range res.Hits {
		it := x.items[h.ID]
		hits = append(hits, Hit{
			Slug:  h.ID,
			Title: it.Title,
			Score: h.Score,
			Rank:  i + 1,
		})
	}
	return hits, nil
}

// Len returns the number of indexed items.
func (x *Index) Len() int {
	return len(x.items)
}

func (x *Index) Close() error {
	return x.bleve.Close()
}
