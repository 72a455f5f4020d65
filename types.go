package main

import "html/template"

// PageStatus represents the outcome of rendering one page
type PageStatus string

const (
	StatusSuccess PageStatus = "success"
	StatusSkipped PageStatus = "skipped"
	StatusError   PageStatus = "error"
)

// PageResult tracks the outcome of each output file
type PageResult struct {
	Path   string // relative to the output directory
	Status PageStatus
	Error  error
}

// TagLink is a tag chip
type TagLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Card is an item summary shown on list pages
type Card struct {
	Slug     string
	Title    string
	URL      string
	Score    string
	Evidence string
	Tags     []TagLink
}

// TagCount is one row of the tag index
type TagCount struct {
	Tag   string
	URL   string
	Count int
}

// WeekLink is one row of the week archive
type WeekLink struct {
	Title     string
	URL       string
	WeekStart string
	WeekEnd   string
}

// SearchEntry is the data embedded in the search page
type SearchEntry struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Tags     []TagLink `json:"tags"`
	Score    float64   `json:"score"`
	Evidence string    `json:"evidence,omitempty"`
}

// ItemView is the item detail page
type ItemView struct {
	Title     string
	CreatedAt string
	UpdatedAt string
	Evidence  string
	Tags      []TagLink
	Body      template.HTML
}

// WeekView is a rendered week report
type WeekView struct {
	Title     string
	URL       string
	WeekStart string
	WeekEnd   string
	Body      template.HTML
	Summary   template.HTML
	Actions   template.HTML
}

// SiteInfo is shared by every page
type SiteInfo struct {
	Title      string
	Language   string
	Labels     Labels
	Home       string
	Weeks      string
	Tags       string
	Search     string
	Stylesheet string
}

// PageData is passed to every page template
type PageData struct {
	Site  SiteInfo
	Title string

	Item    *ItemView
	Week    *WeekView
	Cards   []Card
	Archive []WeekLink
	Tags    []TagCount
	Tag     string
	Entries []SearchEntry
}
