package main

import (
	"fmt"
	"log"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/aktagon/ai-weekly/internal/content"
)

// NewsletterWriter turns a week report into a Markdown digest with absolute
// links, ready to paste into a mailing tool.
type NewsletterWriter struct {
	builder   *SiteBuilder
	converter *md.Converter
}

// NewNewsletterWriter creates a writer whose links point at site_url
func NewNewsletterWriter(config *Config) (*NewsletterWriter, error) {
	if config.Settings.SiteURL == "" {
		log.Printf("Warning: site_url is not set, newsletter links will be site-relative")
	}
	builder, err := newSiteBuilder(config, config.AbsolutePaths())
	if err != nil {
		return nil, err
	}
	return &NewsletterWriter{
		builder:   builder,
		converter: md.NewConverter("", true, nil),
	}, nil
}

// Write renders the week with slug, or the latest week when slug is empty
func (w *NewsletterWriter) Write(slug string) (string, error) {
	store := w.builder.store

	var (
		week content.WeekReport
		err  error
	)
	if slug == "" {
		week, err = store.LatestWeek()
	} else {
		week, err = store.Week(slug)
	}
	if err != nil {
		return "", err
	}

	items, err := store.Items()
	if err != nil {
		return "", err
	}

	view, err := w.builder.weekDigest(week)
	if err != nil {
		return "", err
	}

	html, err := w.builder.renderer.Render(templateNewsletter, PageData{
		Site:  w.builder.site(),
		Title: week.Title,
		Week:  view,
		Cards: w.builder.cards(items),
	})
	if err != nil {
		return "", err
	}

	markdown, err := w.converter.ConvertString(string(html))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown) + "\n", nil
}
