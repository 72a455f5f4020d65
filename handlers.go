package main

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkHandler rewrites anchors in rendered document content
type LinkHandler interface {
	CanHandle(href string) bool
	Handle(link *goquery.Selection, href string)
}

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// InternalLinkHandler handles root-relative links to other site pages
type InternalLinkHandler struct {
	paths Paths
}

func (h *InternalLinkHandler) CanHandle(href string) bool {
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}

func (h *InternalLinkHandler) Handle(link *goquery.Selection, href string) {
	next := h.paths.Internal(href)
	if next != href {
		debugLog("internal link %s -> %s", href, next)
	}
	link.SetAttr("href", next)
}

// ExternalLinkHandler opens links to other sites in a new tab
type ExternalLinkHandler struct{}

func (h *ExternalLinkHandler) CanHandle(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//")
}

func (h *ExternalLinkHandler) Handle(link *goquery.Selection, href string) {
	link.SetAttr("target", "_blank")
	link.SetAttr("rel", "noopener noreferrer")
}

// PassthroughHandler leaves fragments, mailto and relative links alone (fallback)
type PassthroughHandler struct{}

func (h *PassthroughHandler) CanHandle(href string) bool {
	return true
}

func (h *PassthroughHandler) Handle(link *goquery.Selection, href string) {
	debugLog("leaving link %q unchanged", href)
}
