package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alphaDoc = `---
title: Alpha
score: 7
tags: [agents, eval]
evidence: high
createdAt: 2026-01-20
updatedAt: 2026-01-21
---
See [the week](/weeks/2026-w04.html) and [the paper](https://example.com/paper).

![chart](/img/chart.png)
`
	betaDoc = `---
title: Beta
score: 9
tags: [agents, ops/infra]
---
Beta body
`
	week4Doc = `---
title: Week 4
weekStart: 2026-01-20
weekEnd: 2026-01-26
---
## TL;DR
Big week for **agents**.
## 本周入选条目
- alpha
## 对我最关键的 3 个行动
1. Try [alpha](/items/alpha)
`
	week3Doc = `---
title: Week 3
weekStart: 2026-01-13
weekEnd: 2026-01-19
---
## TL;DR
Older week
`
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	}
}

// newTestConfig returns the default settings pointed at root/content and root/out
func newTestConfig(t *testing.T, root string) *Config {
	t.Helper()
	settings, err := parseSettings(nil)
	require.NoError(t, err)

	settings.ContentRoot = filepath.Join(root, "content")
	settings.OutputDirectory = filepath.Join(root, "out")
	settings.Concurrency = 2
	require.NoError(t, settings.validate())

	return &Config{Settings: settings, Overrides: &ConfigOverrides{}}
}

func fixtureSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"content/items/alpha.mdx":    alphaDoc,
		"content/items/beta.mdx":     betaDoc,
		"content/weeks/2026-w04.mdx": week4Doc,
		"content/weeks/2026-w03.mdx": week3Doc,
	})
	return root
}

func readOutput(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "out", filepath.FromSlash(name)))
	require.NoError(t, err, "reading %s", name)
	return string(data)
}

func build(t *testing.T, config *Config) []PageResult {
	t.Helper()
	builder, err := NewSiteBuilder(config)
	require.NoError(t, err)

	results, err := builder.Build(context.Background())
	require.NoError(t, err)
	return results
}

func TestBuild(t *testing.T) {
	root := fixtureSite(t)
	results := build(t, newTestConfig(t, root))

	expected := []string{
		"index.html",
		"items/alpha/index.html",
		"items/beta/index.html",
		"weeks/2026-w04/index.html",
		"weeks/2026-w03/index.html",
		"weeks/index.html",
		"tags/index.html",
		"tags/agents/index.html",
		"tags/eval/index.html",
		"tags/ops-infra/index.html",
		"search/index.html",
		"style.css",
	}

	var written []string
	for _, r := range results {
		assert.Equal(t, StatusSuccess, r.Status, "page %s: %v", r.Path, r.Error)
		written = append(written, r.Path)
	}
	assert.ElementsMatch(t, expected, written)

	for _, name := range expected {
		_, err := os.Stat(filepath.Join(root, "out", filepath.FromSlash(name)))
		assert.NoError(t, err, "missing %s", name)
	}
}

func TestBuildHomePage(t *testing.T) {
	root := fixtureSite(t)
	build(t, newTestConfig(t, root))

	home := readOutput(t, root, "index.html")

	assert.Contains(t, home, `<html lang="zh-CN">`)
	assert.Contains(t, home, "<h1>Week 4</h1>")
	assert.Contains(t, home, "Big week for <strong>agents</strong>.")
	assert.Contains(t, home, `href="/ai-weekly-site/items/alpha/"`)
	assert.Contains(t, home, `href="/ai-weekly-site/weeks/2026-w04/"`)
	assert.Contains(t, home, `href="/ai-weekly-site/style.css"`)
	assert.Contains(t, home, "得分：9")
	assert.NotContains(t, home, "Older week")

	beta := strings.Index(home, ">Beta</a>")
	alpha := strings.Index(home, ">Alpha</a>")
	require.NotEqual(t, -1, beta)
	require.NotEqual(t, -1, alpha)
	assert.Less(t, beta, alpha, "cards should be ordered by score")
}

func TestBuildItemPage(t *testing.T) {
	root := fixtureSite(t)
	build(t, newTestConfig(t, root))

	page := readOutput(t, root, "items/alpha/index.html")

	assert.Contains(t, page, "<h1>Alpha</h1>")
	assert.Contains(t, page, "创建时间：2026-01-20")
	assert.Contains(t, page, "更新时间：2026-01-21")
	assert.Contains(t, page, `<span class="badge high">high</span>`)
	assert.Contains(t, page, `href="/ai-weekly-site/tags/agents/"`)
	assert.Contains(t, page, `href="/ai-weekly-site/weeks/2026-w04/"`)
	assert.Contains(t, page, `target="_blank"`)
	assert.Contains(t, page, `src="/ai-weekly-site/img/chart.png"`)
	assert.NotContains(t, page, "2026-w04.html")
}

func TestBuildListPages(t *testing.T) {
	root := fixtureSite(t)
	build(t, newTestConfig(t, root))

	archive := readOutput(t, root, "weeks/index.html")
	w4 := strings.Index(archive, "Week 4")
	w3 := strings.Index(archive, "Week 3")
	require.NotEqual(t, -1, w4)
	require.NotEqual(t, -1, w3)
	assert.Less(t, w4, w3, "newest week first")
	assert.Contains(t, archive, "2026-01-20 – 2026-01-26")

	week := readOutput(t, root, "weeks/2026-w03/index.html")
	assert.Contains(t, week, "Older week")

	tags := readOutput(t, root, "tags/index.html")
	assert.Contains(t, tags, ">agents</a>（2）")
	assert.Contains(t, tags, ">ops/infra</a>（1）")

	tag := readOutput(t, root, "tags/agents/index.html")
	assert.Contains(t, tag, "标签：agents")
	assert.Contains(t, tag, ">Alpha</a>")
	assert.Contains(t, tag, ">Beta</a>")

	eval := readOutput(t, root, "tags/eval/index.html")
	assert.NotContains(t, eval, ">Beta</a>")

	search := readOutput(t, root, "search/index.html")
	assert.Contains(t, search, `"slug":"beta"`)
	assert.Contains(t, search, `"title":"Alpha"`)
}

func TestBuildWithoutBasePath(t *testing.T) {
	root := fixtureSite(t)
	config := newTestConfig(t, root)
	config.Settings.BasePath = ""
	build(t, config)

	page := readOutput(t, root, "items/alpha/index.html")
	assert.Contains(t, page, `href="/weeks/2026-w04/"`)
	assert.Contains(t, page, `href="/style.css"`)
}

func TestBuildSkipsHomeWithoutWeeks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"content/items/alpha.mdx": alphaDoc,
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content", "weeks"), 0755))

	results := build(t, newTestConfig(t, root))

	var home *PageResult
	for i := range results {
		if results[i].Path == "index.html" {
			home = &results[i]
		}
	}
	require.NotNil(t, home)
	assert.Equal(t, StatusSkipped, home.Status)
	assert.True(t, errors.Is(home.Error, ErrNoWeeks))

	_, err := os.Stat(filepath.Join(root, "out", "index.html"))
	assert.True(t, os.IsNotExist(err))

	readOutput(t, root, "items/alpha/index.html")
	readOutput(t, root, "weeks/index.html")
}

func TestBuildRejectsUnsafeSlug(t *testing.T) {
	root := fixtureSite(t)
	writeFiles(t, root, map[string]string{
		"content/items/evil.mdx": "---\nslug: ../evil\ntitle: Evil\n---\nbody\n",
	})

	results := build(t, newTestConfig(t, root))

	var failed []string
	for _, r := range results {
		if r.Status == StatusError {
			failed = append(failed, r.Path)
		}
	}
	assert.Equal(t, []string{"items/../evil"}, failed)

	_, err := os.Stat(filepath.Join(root, "out", "evil"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildClearsOutput(t *testing.T) {
	root := fixtureSite(t)
	writeFiles(t, root, map[string]string{
		"out/stale.html": "old",
	})

	build(t, newTestConfig(t, root))

	_, err := os.Stat(filepath.Join(root, "out", "stale.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildRefusesOutputContainingContent(t *testing.T) {
	root := fixtureSite(t)
	config := newTestConfig(t, root)
	config.Settings.OutputDirectory = root

	builder, err := NewSiteBuilder(config)
	require.NoError(t, err)

	_, err = builder.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains the content root")

	// nothing was removed
	_, err = os.Stat(filepath.Join(root, "content", "items", "alpha.mdx"))
	assert.NoError(t, err)
}

func TestBuildCanceled(t *testing.T) {
	root := fixtureSite(t)
	builder, err := NewSiteBuilder(newTestConfig(t, root))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = builder.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildMissingContent(t *testing.T) {
	root := t.TempDir()
	builder, err := NewSiteBuilder(newTestConfig(t, root))
	require.NoError(t, err)

	_, err = builder.Build(context.Background())
	assert.Error(t, err)
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path     string
		dir      string
		expected bool
	}{
		{"/a/b/content", "/a/b", true},
		{"/a/b", "/a/b", true},
		{"/a/content", "/a/b", false},
		{"/a/bc", "/a/b", false},
	}

	for _, tt := range tests {
		if got := within(tt.path, tt.dir); got != tt.expected {
			t.Errorf("within(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.expected)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{9, "9"},
		{9.5, "9.5"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatScore(tt.score); got != tt.expected {
			t.Errorf("formatScore(%v) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}
