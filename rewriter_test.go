package main

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// Mock handler for testing
type mockHandler struct {
	canHandleResult bool
	handled         []string
}

func (m *mockHandler) CanHandle(href string) bool {
	return m.canHandleResult
}

func (m *mockHandler) Handle(link *goquery.Selection, href string) {
	m.handled = append(m.handled, href)
	link.SetAttr("data-mock", "1")
}

func TestNewLinkRewriter(t *testing.T) {
	r := NewLinkRewriter(NewPaths("", "/site"))

	expectedHandlerCount := 3 // internal, external, passthrough
	if len(r.handlers) != expectedHandlerCount {
		t.Errorf("NewLinkRewriter() registered %d handlers, want %d", len(r.handlers), expectedHandlerCount)
	}
}

func TestAddHandler(t *testing.T) {
	r := &LinkRewriter{}
	mock := &mockHandler{canHandleResult: true}
	r.AddHandler(mock)

	out, err := r.Rewrite(`<p><a href="/x">x</a> <a href="#y">y</a></p>`)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if len(mock.handled) != 2 {
		t.Errorf("mock handled %d links, want 2", len(mock.handled))
	}
	if strings.Count(out, `data-mock="1"`) != 2 {
		t.Errorf("Rewrite() output missing handler changes: %s", out)
	}
}

func TestRewriteFirstMatchingHandlerWins(t *testing.T) {
	first := &mockHandler{canHandleResult: true}
	second := &mockHandler{canHandleResult: true}
	r := &LinkRewriter{}
	r.AddHandler(first)
	r.AddHandler(second)

	if _, err := r.Rewrite(`<a href="/x">x</a>`); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if len(first.handled) != 1 || len(second.handled) != 0 {
		t.Errorf("handled counts = %d/%d, want 1/0", len(first.handled), len(second.handled))
	}
}

func TestRewrite(t *testing.T) {
	r := NewLinkRewriter(NewPaths("", "/ai-weekly-site"))

	fragment := `<p>See <a href="/weeks/2026-w04.html#tldr">the week</a>, ` +
		`<a href="https://example.com/paper">the paper</a>, ` +
		`<a href="#notes">notes</a> and <a href="mailto:team@example.com">mail</a>.</p>` +
		`<p><img src="/img/chart.png" alt="chart"><img src="https://example.com/a.png" alt="remote"></p>`

	out, err := r.Rewrite(fragment)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	wants := []string{
		`href="/ai-weekly-site/weeks/2026-w04/#tldr"`,
		`href="https://example.com/paper" target="_blank" rel="noopener noreferrer"`,
		`<a href="#notes">notes</a>`,
		`<a href="mailto:team@example.com">mail</a>`,
		`src="/ai-weekly-site/img/chart.png"`,
		`src="https://example.com/a.png"`,
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("Rewrite() output missing %s\n%s", want, out)
		}
	}
	if strings.Contains(out, "<body>") || strings.Contains(out, "<html>") {
		t.Errorf("Rewrite() should return only the fragment: %s", out)
	}
}

func TestRewriteKeepsPrefixedImages(t *testing.T) {
	r := NewLinkRewriter(NewPaths("", "/site"))

	out, err := r.Rewrite(`<img src="/site/img/a.png">`)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if !strings.Contains(out, `src="/site/img/a.png"`) {
		t.Errorf("image rewritten twice: %s", out)
	}
}

func TestRewriteEmpty(t *testing.T) {
	r := NewLinkRewriter(NewPaths("", ""))
	out, err := r.Rewrite("  ")
	if err != nil || out != "  " {
		t.Errorf("Rewrite(blank) = %q, %v", out, err)
	}
}

func TestRewriteKeepsLeadingRawHTML(t *testing.T) {
	r := NewLinkRewriter(NewPaths("", "/ai-weekly-site"))

	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"style", "<style>.x{color:red}</style>\n<p>see <a href=\"/weeks/a.html\">a</a></p>", "<style>.x{color:red}</style>"},
		{"script", "<script>var x = 1;</script><p><a href=\"/weeks/a.html\">a</a></p>", "<script>var x = 1;</script>"},
		{"meta", `<meta name="x" content="y"><p><a href="/weeks/a.html">a</a></p>`, `<meta name="x" content="y"/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Rewrite(tt.fragment)
			if err != nil {
				t.Fatalf("Rewrite() error = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("Rewrite() dropped %s\n%s", tt.want, out)
			}
			if !strings.Contains(out, `href="/ai-weekly-site/weeks/a/"`) {
				t.Errorf("Rewrite() did not rewrite the link\n%s", out)
			}
			if strings.Index(out, tt.want) > strings.Index(out, "<p>") {
				t.Errorf("Rewrite() reordered the fragment\n%s", out)
			}
		})
	}
}
