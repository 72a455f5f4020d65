package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"github.com/aktagon/ai-weekly/internal/content"
)

// ErrNoWeeks is reported for the home page when there is no week report
var ErrNoWeeks = errors.New("no week reports")

// SiteBuilder renders the content store into a static site
type SiteBuilder struct {
	config   *Config
	store    *content.Store
	renderer *Renderer
	markdown goldmark.Markdown
	rewriter *LinkRewriter
	paths    Paths
}

type page struct {
	path   string // slash separated, relative to the output directory
	render func() ([]byte, error)
}

// NewSiteBuilder creates a builder with site-relative URLs
func NewSiteBuilder(config *Config) (*SiteBuilder, error) {
	return newSiteBuilder(config, config.Paths())
}

func newSiteBuilder(config *Config, paths Paths) (*SiteBuilder, error) {
	renderer, err := NewRenderer(config.TemplateFS())
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return &SiteBuilder{
		config:   config,
		store:    config.OpenStore(),
		renderer: renderer,
		markdown: newMarkdown(),
		rewriter: NewLinkRewriter(paths),
		paths:    paths,
	}, nil
}

// Build clears the output directory and renders every page. Pages that fail
// are reported in the results; the returned error is for failures that stop
// the whole build.
func (b *SiteBuilder) Build(ctx context.Context) ([]PageResult, error) {
	if err := b.store.Load(); err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	pages, results, err := b.plan()
	if err != nil {
		return nil, err
	}

	if err := b.prepareOutput(); err != nil {
		return nil, err
	}

	log.Printf("Rendering %d pages to %s...", len(pages), b.config.Settings.OutputDirectory)

	written := make([]PageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Settings.Concurrency)
	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			written[i] = b.writePage(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rendering pages: %w", err)
	}

	results = append(written, results...)
	logSummary(results)
	return results, nil
}

// plan lists the pages to render. Pages that cannot be rendered at all, such
// as an item whose slug is not a usable directory name, come back as results.
func (b *SiteBuilder) plan() ([]page, []PageResult, error) {
	items, err := b.store.Items()
	if err != nil {
		return nil, nil, err
	}
	weeks, err := b.store.Weeks()
	if err != nil {
		return nil, nil, err
	}
	tags, err := b.store.Tags()
	if err != nil {
		return nil, nil, err
	}

	var (
		pages   []page
		results []PageResult
		claimed = make(map[string]string)
	)
	add := func(source, path string, render func() ([]byte, error)) {
		if other, ok := claimed[path]; ok {
			err := fmt.Errorf("%s and %s both render to %s", other, source, path)
			log.Printf("✗ Failed %s: %v", path, err)
			results = append(results, PageResult{Path: path, Status: StatusError, Error: err})
			return
		}
		claimed[path] = source
		pages = append(pages, page{path: path, render: render})
	}
	reject := func(path string, err error) {
		log.Printf("✗ Failed %s: %v", path, err)
		results = append(results, PageResult{Path: path, Status: StatusError, Error: err})
	}

	cards := b.cards(items)

	if len(weeks) == 0 {
		log.Printf("Skipping home page: %v", ErrNoWeeks)
		results = append(results, PageResult{Path: "index.html", Status: StatusSkipped, Error: ErrNoWeeks})
	} else {
		latest := weeks[0]
		add("home", "index.html", func() ([]byte, error) {
			return b.renderHome(latest, cards)
		})
	}

	for _, item := range items {
		item := item
		if err := safeSegment(item.Slug); err != nil {
			reject("items/"+item.Slug, fmt.Errorf("%s: %w", item.Path, err))
			continue
		}
		add(item.Path, pageFile("items", item.Slug), func() ([]byte, error) {
			return b.renderItem(item)
		})
	}

	for _, week := range weeks {
		week := week
		if err := safeSegment(week.Slug); err != nil {
			reject("weeks/"+week.Slug, fmt.Errorf("%s: %w", week.Path, err))
			continue
		}
		add(week.Path, pageFile("weeks", week.Slug), func() ([]byte, error) {
			return b.renderWeek(week)
		})
	}
	add("week archive", pageFile("weeks"), func() ([]byte, error) {
		return b.renderArchive(weeks)
	})

	add("tag index", pageFile("tags"), func() ([]byte, error) {
		return b.renderTagIndex(tags)
	})
	for _, tag := range tags {
		tag := tag
		dir := tagDir(tag)
		if err := safeSegment(dir); err != nil {
			reject("tags/"+dir, err)
			continue
		}
		add("tag "+tag, pageFile("tags", dir), func() ([]byte, error) {
			return b.renderTag(tag)
		})
	}

	add("search", pageFile("search"), func() ([]byte, error) {
		return b.renderSearch(items)
	})
	add("stylesheet", "style.css", b.config.Stylesheet)

	return pages, results, nil
}

// prepareOutput removes the previous build. It refuses directories whose
// removal would take other files with it.
func (b *SiteBuilder) prepareOutput() error {
	out, err := filepath.Abs(b.config.Settings.OutputDirectory)
	if err != nil {
		return fmt.Errorf("resolving output directory: %w", err)
	}
	root, err := filepath.Abs(b.config.Settings.ContentRoot)
	if err != nil {
		return fmt.Errorf("resolving content root: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	home, _ := os.UserHomeDir()

	switch {
	case out == filepath.Dir(out):
		return fmt.Errorf("refusing to clear output directory %s: filesystem root", out)
	case out == cwd, home != "" && out == home:
		return fmt.Errorf("refusing to clear output directory %s: use a dedicated directory", out)
	case within(root, out):
		return fmt.Errorf("refusing to clear output directory %s: it contains the content root", out)
	}

	debugLog("clearing %s", out)
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("clearing output directory: %w", err)
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

// within reports whether path is dir or below it
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (b *SiteBuilder) writePage(p page) PageResult {
	data, err := p.render()
	if err != nil {
		log.Printf("✗ Failed %s: %v", p.path, err)
		return PageResult{Path: p.path, Status: StatusError, Error: err}
	}

	target := filepath.Join(b.config.Settings.OutputDirectory, filepath.FromSlash(p.path))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		log.Printf("✗ Failed %s: %v", p.path, err)
		return PageResult{Path: p.path, Status: StatusError, Error: err}
	}
	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		log.Printf("✗ Failed %s: %v", p.path, err)
		return PageResult{Path: p.path, Status: StatusError, Error: fmt.Errorf("writing page: %w", err)}
	}

	debugLog("✓ Wrote %s", p.path)
	return PageResult{Path: p.path, Status: StatusSuccess}
}

func logSummary(results []PageResult) {
	var ok, skipped, failed int
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			ok++
		case StatusSkipped:
			skipped++
		case StatusError:
			failed++
		}
	}
	log.Printf("✓ Generated %d pages (%d skipped, %d failed)", ok, skipped, failed)
}

func (b *SiteBuilder) site() SiteInfo {
	s := b.config.Settings
	return SiteInfo{
		Title:      s.SiteTitle,
		Language:   s.Language,
		Labels:     s.Labels,
		Home:       b.paths.Home(),
		Weeks:      b.paths.Weeks(),
		Tags:       b.paths.Tags(),
		Search:     b.paths.Search(),
		Stylesheet: b.paths.Asset("style.css"),
	}
}

// html converts a markdown body and rewrites its links
func (b *SiteBuilder) html(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	out, err := markdownToHTML(b.markdown, src)
	if err != nil {
		return "", err
	}
	out, err = b.rewriter.Rewrite(out)
	if err != nil {
		return "", fmt.Errorf("rewriting links: %w", err)
	}
	return template.HTML(out), nil
}

func (b *SiteBuilder) tagLinks(tags []string) []TagLink {
	links := make([]TagLink, 0, len(tags))
	for _, t := range tags {
		links = append(links, TagLink{Name: t, URL: b.paths.Tag(t)})
	}
	return links
}

func (b *SiteBuilder) cards(items []content.Item) []Card {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		cards = append(cards, Card{
			Slug:     it.Slug,
			Title:    it.Title,
			URL:      b.paths.Item(it.Slug),
			Score:    formatScore(it.Score),
			Evidence: it.Evidence,
			Tags:     b.tagLinks(it.Tags),
		})
	}
	return cards
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// weekDigest renders the sections shown on the home page and in the newsletter
func (b *SiteBuilder) weekDigest(week content.WeekReport) (*WeekView, error) {
	sections := week.Sections(b.config.Settings.Sections)
	for _, name := range sections.Missing() {
		if name == content.SectionList {
			continue
		}
		log.Printf("Warning: week %s has no %s section", week.Slug, name)
	}

	summary, err := b.html(sections.Summary)
	if err != nil {
		return nil, fmt.Errorf("%s summary: %w", week.Path, err)
	}
	actions, err := b.html(sections.Actions)
	if err != nil {
		return nil, fmt.Errorf("%s actions: %w", week.Path, err)
	}

	return &WeekView{
		Title:     week.Title,
		URL:       b.paths.Week(week.Slug),
		WeekStart: week.WeekStart,
		WeekEnd:   week.WeekEnd,
		Summary:   summary,
		Actions:   actions,
	}, nil
}

func (b *SiteBuilder) renderHome(latest content.WeekReport, cards []Card) ([]byte, error) {
	view, err := b.weekDigest(latest)
	if err != nil {
		return nil, err
	}
	return b.renderer.Render(templateHome, PageData{
		Site:  b.site(),
		Title: b.config.Settings.Labels.Home,
		Week:  view,
		Cards: cards,
	})
}

func (b *SiteBuilder) renderItem(item content.Item) ([]byte, error) {
	body, err := b.html(item.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", item.Path, err)
	}
	return b.renderer.Render(templateItem, PageData{
		Site:  b.site(),
		Title: item.Title,
		Item: &ItemView{
			Title:     item.Title,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
			Evidence:  item.Evidence,
			Tags:      b.tagLinks(item.Tags),
			Body:      body,
		},
	})
}

func (b *SiteBuilder) renderWeek(week content.WeekReport) ([]byte, error) {
	body, err := b.html(week.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", week.Path, err)
	}
	return b.renderer.Render(templateWeek, PageData{
		Site:  b.site(),
		Title: week.Title,
		Week: &WeekView{
			Title:     week.Title,
			URL:       b.paths.Week(week.Slug),
			WeekStart: week.WeekStart,
			WeekEnd:   week.WeekEnd,
			Body:      body,
		},
	})
}

func (b *SiteBuilder) renderArchive(weeks []content.WeekReport) ([]byte, error) {
	archive := make([]WeekLink, 0, len(weeks))
	for _, w := range weeks {
		archive = append(archive, WeekLink{
			Title:     w.Title,
			URL:       b.paths.Week(w.Slug),
			WeekStart: w.WeekStart,
			WeekEnd:   w.WeekEnd,
		})
	}
	return b.renderer.Render(templateArchive, PageData{
		Site:    b.site(),
		Title:   b.config.Settings.Labels.Weeks,
		Archive: archive,
	})
}

func (b *SiteBuilder) renderTagIndex(tags []string) ([]byte, error) {
	counts := make([]TagCount, 0, len(tags))
	for _, tag := range tags {
		items, err := b.store.ItemsByTag(tag)
		if err != nil {
			return nil, err
		}
		counts = append(counts, TagCount{Tag: tag, URL: b.paths.Tag(tag), Count: len(items)})
	}
	return b.renderer.Render(templateTags, PageData{
		Site:  b.site(),
		Title: b.config.Settings.Labels.Tags,
		Tags:  counts,
	})
}

func (b *SiteBuilder) renderTag(tag string) ([]byte, error) {
	items, err := b.store.ItemsByTag(tag)
	if err != nil {
		return nil, err
	}
	return b.renderer.Render(templateTag, PageData{
		Site:  b.site(),
		Title: b.config.Settings.Labels.Tag + tag,
		Tag:   tag,
		Cards: b.cards(items),
	})
}

func (b *SiteBuilder) renderSearch(items []content.Item) ([]byte, error) {
	entries := make([]SearchEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, SearchEntry{
			Slug:     it.Slug,
			Title:    it.Title,
			URL:      b.paths.Item(it.Slug),
			Tags:     b.tagLinks(it.Tags),
			Score:    it.Score,
			Evidence: it.Evidence,
		})
	}
	return b.renderer.Render(templateSearch, PageData{
		Site:    b.site(),
		Title:   b.config.Settings.Labels.Search,
		Entries: entries,
	})
}
