package content

import (
	"regexp"
	"slices"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// SectionMarkers are the headings that split a week report body.
type SectionMarkers struct {
	Summary string `yaml:"summary"`
	List    string `yaml:"list"`
	Actions string `yaml:"actions"`
	// Heading is the generic heading prefix that closes an open section.
	Heading string `yaml:"heading"`
}

// DefaultSectionMarkers returns the headings used by the digest's week reports.
func DefaultSectionMarkers() SectionMarkers {
	return SectionMarkers{
		Summary: "## TL;DR",
		List:    "## 本周入选条目",
		Actions: "## 对我最关键的",
		Heading: "## ",
	}
}

func (m SectionMarkers) withDefaults() SectionMarkers {
	d := DefaultSectionMarkers()
	if m.Summary == "" {
		m.Summary = d.Summary
	}
	if m.List == "" {
		m.List = d.List
	}
	if m.Actions == "" {
		m.Actions = d.Actions
	}
	if m.Heading == "" {
		m.Heading = d.Heading
	}
	return m
}

// Section names reported by Sections.Missing.
const (
	SectionSummary = "summary"
	SectionList    = "list"
	SectionActions = "actions"
)

// Sections holds the three named parts of a week report.
type Sections struct {
	Summary string
	List    string
	Actions string

	missing []string
}

// Missing names the sections whose heading never appeared in the body.
func (s Sections) Missing() []string {
	return slices.Clone(s.missing)
}

// ExtractSections scans body line by line. A line starting with one of the
// three markers (trimmed, case-insensitive) opens that section; any other line
// starting with the generic heading prefix closes the open one. Heading lines
// themselves are dropped, as is text outside every section.
func ExtractSections(body string, markers SectionMarkers) Sections {
	markers = markers.withDefaults()
	names := [...]string{SectionSummary, SectionList, SectionActions}
	prefixes := [...]string{
		strings.ToLower(strings.TrimSpace(markers.Summary)),
		strings.ToLower(strings.TrimSpace(markers.List)),
		strings.ToLower(strings.TrimSpace(markers.Actions)),
	}

	var (
		buffers [3][]string
		found   [3]bool
		current = -1
	)

lines:
	for _, line := range lineBreak.Split(body, -1) {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		for i, prefix := range prefixes {
			if strings.HasPrefix(lower, prefix) {
				current = i
				found[i] = true
				continue lines
			}
		}
		if strings.HasPrefix(trimmed, markers.Heading) {
			current = -1
			continue
		}
		if current >= 0 {
			buffers[current] = append(buffers[current], line)
		}
	}

	s := Sections{
		Summary: strings.Join(buffers[0], "\n"),
		List:    strings.Join(buffers[1], "\n"),
		Actions: strings.Join(buffers[2], "\n"),
	}
	for i, ok := range found {
		if !ok {
			s.missing = append(s.missing, names[i])
		}
	}
	return s
}
