package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/aktagon/ai-weekly/internal/content"
)

// Severity of a check finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one problem found in the content root
type Finding struct {
	Severity Severity
	Path     string
	Message  string
}

var (
	checkOK   = color.New(color.FgGreen)
	checkWarn = color.New(color.FgYellow)
	checkFail = color.New(color.FgRed, color.Bold)
)

// CheckContent loads the store leniently and reports everything that would
// break or degrade a build.
func CheckContent(store *content.Store, markers content.SectionMarkers) []Finding {
	if err := store.Load(); err != nil {
		return []Finding{findingFromError(err)}
	}

	var findings []Finding
	for _, p := range store.Problems() {
		findings = append(findings, findingFromError(p))
	}

	items, _ := store.Items()
	dirs := make(map[string]string)
	for _, it := range items {
		if err := safeSegment(it.Slug); err != nil {
			findings = append(findings, Finding{SeverityError, it.Path, err.Error()})
		}
		if len(it.Tags) == 0 {
			findings = append(findings, Finding{SeverityWarning, it.Path, "no tags"})
		}
		if _, ok := it.Meta.Get("title"); !ok {
			findings = append(findings, Finding{SeverityWarning, it.Path, "no title, the slug is shown instead"})
		}
	}

	tags, _ := store.Tags()
	for _, tag := range tags {
		dir := tagDir(tag)
		if other, ok := dirs[dir]; ok {
			findings = append(findings, Finding{SeverityError, "", fmt.Sprintf("tags %q and %q share the page tags/%s", other, tag, dir)})
			continue
		}
		dirs[dir] = tag
		if err := safeSegment(dir); err != nil {
			findings = append(findings, Finding{SeverityError, "", fmt.Sprintf("tag %q: %v", tag, err)})
		}
	}

	weeks, _ := store.Weeks()
	if len(weeks) == 0 {
		findings = append(findings, Finding{SeverityWarning, "", "no week reports, the home page will be skipped"})
	}
	for _, w := range weeks {
		if err := safeSegment(w.Slug); err != nil {
			findings = append(findings, Finding{SeverityError, w.Path, err.Error()})
		}
		if missing := w.Sections(markers).Missing(); len(missing) > 0 {
			findings = append(findings, Finding{SeverityWarning, w.Path, "missing sections: " + strings.Join(missing, ", ")})
		}
	}

	return findings
}

func findingFromError(err error) Finding {
	var docErr *content.DocumentError
	if errors.As(err, &docErr) {
		return Finding{SeverityError, docErr.Path, docErr.Err.Error()}
	}
	return Finding{SeverityError, "", err.Error()}
}

// countErrors returns the number of error-level findings
func countErrors(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// printFindings writes a colored report
func printFindings(w io.Writer, findings []Finding) {
	if len(findings) == 0 {
		checkOK.Fprintln(w, "✓ No problems found")
		return
	}

	for _, f := range findings {
		where := f.Path
		if where == "" {
			where = "content"
		}
		switch f.Severity {
		case SeverityError:
			checkFail.Fprintf(w, "✗ %s", where)
		default:
			checkWarn.Fprintf(w, "⚠ %s", where)
		}
		fmt.Fprintf(w, ": %s\n", f.Message)
	}

	errs := countErrors(findings)
	fmt.Fprintf(w, "\n%d errors, %d warnings\n", errs, len(findings)-errs)
}
