package main

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkRewriter applies link handlers to rendered HTML fragments
type LinkRewriter struct {
	handlers []LinkHandler
	paths    Paths
}

// NewLinkRewriter creates a rewriter with the default handlers
func NewLinkRewriter(paths Paths) *LinkRewriter {
	r := &LinkRewriter{paths: paths}

	// Register handlers (most specific first)
	r.AddHandler(&InternalLinkHandler{paths: paths})
	r.AddHandler(&ExternalLinkHandler{})
	r.AddHandler(&PassthroughHandler{}) // fallback

	return r
}

// AddHandler adds a link handler to the chain
func (r *LinkRewriter) AddHandler(handler LinkHandler) {
	r.handlers = append(r.handlers, handler)
}

// Rewrite runs every anchor through the first matching handler and moves
// root-relative image sources under the base path.
func (r *LinkRewriter) Rewrite(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	body, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	body.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		for _, handler := range r.handlers {
			if handler.CanHandle(href) {
				handler.Handle(link, href)
				return
			}
		}
	})

	body.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
			img.SetAttr("src", r.asset(src))
		}
	})

	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return out, nil
}

func (r *LinkRewriter) asset(src string) string {
	if r.paths.Base != "" && strings.HasPrefix(src, r.paths.Base+"/") {
		return r.paths.Origin + src
	}
	return r.paths.Asset(src)
}

// parseFragment parses fragment in a body context, so leading style, script
// or meta elements stay where they are instead of moving to a document head.
func parseFragment(fragment string) (*goquery.Selection, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(body).Selection, nil
}
