package main

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
)

// Paths builds site URLs under Base. Page URLs end in a slash; Origin, when
// set, makes them absolute.
type Paths struct {
	Origin string
	Base   string
}

// NewPaths normalizes the base path and origin
func NewPaths(origin, base string) Paths {
	return Paths{
		Origin: strings.TrimRight(strings.TrimSpace(origin), "/"),
		Base:   normalizeBasePath(base),
	}
}

// normalizeBasePath returns "" for the site root, otherwise "/segment[/...]"
// without a trailing slash.
func normalizeBasePath(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

func (p Paths) url(rel string) string {
	return p.Origin + p.Base + rel
}

func (p Paths) Home() string   { return p.url("/") }
func (p Paths) Weeks() string  { return p.url("/weeks/") }
func (p Paths) Tags() string   { return p.url("/tags/") }
func (p Paths) Search() string { return p.url("/search/") }

func (p Paths) Item(slug string) string {
	return p.url("/items/" + url.PathEscape(slug) + "/")
}

func (p Paths) Week(slug string) string {
	return p.url("/weeks/" + url.PathEscape(slug) + "/")
}

func (p Paths) Tag(tag string) string {
	return p.url("/tags/" + url.PathEscape(tagDir(tag)) + "/")
}

// Asset returns the URL of a file at the site root, such as the stylesheet
func (p Paths) Asset(name string) string {
	return p.url("/" + strings.TrimLeft(name, "/"))
}

// Internal rewrites a root-relative link from document content: a ".html"
// suffix is dropped, pages get a trailing slash, the base path is added, and
// any query or fragment is kept. Outside the page directories a last segment
// with an extension is taken to be a file and keeps no slash.
func (p Paths) Internal(href string) string {
	rest := ""
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href, rest = href[:i], href[i:]
	}

	if p.Base != "" && (href == p.Base || strings.HasPrefix(href, p.Base+"/")) {
		href = strings.TrimPrefix(href, p.Base)
		if href == "" {
			href = "/"
		}
	}

	if strings.HasSuffix(href, "/index.html") {
		href = strings.TrimSuffix(href, "index.html")
	}
	href = strings.TrimSuffix(href, ".html")
	if !strings.HasSuffix(href, "/") && (isPageRoute(href) || path.Ext(href) == "") {
		href += "/"
	}
	return p.url(href) + rest
}

// pageRoutes are the top-level directories that only hold pages
var pageRoutes = []string{"items", "weeks", "tags", "search"}

// isPageRoute reports whether href points into a page directory, where a dot
// in the last segment is part of a slug rather than a file extension.
func isPageRoute(href string) bool {
	first, _, _ := strings.Cut(strings.TrimPrefix(href, "/"), "/")
	return slices.Contains(pageRoutes, first)
}

// tagDir maps a tag to a single path segment
func tagDir(tag string) string {
	return strings.NewReplacer("/", "-", "\\", "-").Replace(tag)
}

// safeSegment rejects names that would escape their output directory
func safeSegment(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid path segment %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("path segment %q contains a separator", name)
	}
	return nil
}

// pageFile returns the slash-separated output file for a page directory
func pageFile(segments ...string) string {
	return path.Join(append(segments, "index.html")...)
}
