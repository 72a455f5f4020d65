package content

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Item is one curated entry of a weekly digest.
type Item struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Score     float64  `json:"score"`
	Tags      []string `json:"tags"`
	Evidence  string   `json:"evidence,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
	Meta      Metadata `json:"meta"`
	Body      string   `json:"-"`
	Path      string   `json:"-"`
}

// HasTag reports whether the item carries tag.
func (it Item) HasTag(tag string) bool {
	return slices.Contains(it.Tags, tag)
}

// WeekReport is one issue of the weekly digest.
type WeekReport struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	WeekStart string   `json:"weekStart"`
	WeekEnd   string   `json:"weekEnd"`
	Meta      Metadata `json:"meta"`
	Body      string   `json:"-"`
	Path      string   `json:"-"`

	end time.Time
}

// Sections splits the report body with the given markers.
func (w WeekReport) Sections(markers SectionMarkers) Sections {
	return ExtractSections(w.Body, markers)
}

func newItem(doc Document, slug string) (Item, error) {
	meta := doc.Meta.With("slug", slug)

	score, err := numberField(meta, "score")
	if err != nil {
		return Item{}, malformed(doc.Path, "%v", err)
	}
	tags, err := stringListField(meta, "tags")
	if err != nil {
		return Item{}, malformed(doc.Path, "%v", err)
	}

	return Item{
		Slug:      slug,
		Title:     titleField(meta, slug),
		Score:     score,
		Tags:      tags,
		Evidence:  scalarField(meta, "evidence"),
		CreatedAt: scalarField(meta, "createdAt"),
		UpdatedAt: scalarField(meta, "updatedAt"),
		Meta:      meta,
		Body:      doc.Body,
		Path:      doc.Path,
	}, nil
}

func newWeekReport(doc Document, slug string) (WeekReport, error) {
	meta := doc.Meta.With("slug", slug)

	start, _, err := dateField(meta, "weekStart")
	if err != nil {
		return WeekReport{}, malformed(doc.Path, "%v", err)
	}
	end, endTime, err := dateField(meta, "weekEnd")
	if err != nil {
		return WeekReport{}, malformed(doc.Path, "%v", err)
	}

	return WeekReport{
		Slug:      slug,
		Title:     titleField(meta, slug),
		WeekStart: start,
		WeekEnd:   end,
		Meta:      meta,
		Body:      doc.Body,
		Path:      doc.Path,
		end:       endTime,
	}, nil
}

func titleField(meta Metadata, slug string) string {
	if title := scalarField(meta, "title"); title != "" {
		return title
	}
	return slug
}

// scalarField renders a scalar value as a string; missing and nil values are "".
func scalarField(meta Metadata, key string) string {
	v, ok := meta.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// numberField reads a numeric value; a missing or null value counts as 0.
func numberField(meta Metadata, key string) (float64, error) {
	v, ok := meta.Get(key)
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%s must be a finite number, got %v", key, n)
		}
		return n, nil
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%s %q is not a number", key, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%s must be a number, got %T", key, v)
}

// stringListField accepts a sequence of scalars or a single scalar.
func stringListField(meta Metadata, key string) ([]string, error) {
	v, ok := meta.Get(key)
	if !ok || v == nil {
		return []string{}, nil
	}
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for i, e := range list {
			switch e.(type) {
			case Metadata, []any:
				return nil, fmt.Errorf("%s[%d] must be a scalar", key, i)
			case nil:
				continue
			}
			out = append(out, fmt.Sprint(e))
		}
		return out, nil
	case Metadata:
		return nil, fmt.Errorf("%s must be a list", key)
	}
	return []string{fmt.Sprint(v)}, nil
}

// dateField reads a required calendar date. Normalized dates are already
// YYYY-MM-DD; quoted RFC 3339 timestamps are reduced to their UTC date.
func dateField(meta Metadata, key string) (string, time.Time, error) {
	raw := scalarField(meta, key)
	if raw == "" {
		return "", time.Time{}, fmt.Errorf("%s is required", key)
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return raw, t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		date := t.UTC().Format(DateLayout)
		day, _ := time.Parse(DateLayout, date)
		return date, day, nil
	}
	return "", time.Time{}, fmt.Errorf("%s %q is not a date", key, raw)
}
