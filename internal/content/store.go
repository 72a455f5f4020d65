// Package content loads the digest's item and week documents from a document
// root and answers the queries every page is built from.
//
// A document root holds two flat directories of front matter documents:
//
//	content/
//	  items/<slug>.mdx
//	  weeks/<slug>.mdx
//
// A Store reads both collections once, on first use, and serves read-only
// queries from the resulting index. Stores are safe for concurrent use.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Defaults for the document root layout.
const (
	DefaultItemsDir  = "items"
	DefaultWeeksDir  = "weeks"
	DefaultExtension = ".mdx"
)

// Option configures a Store.
type Option func(*Store)

// WithCollections sets the directories holding items and week reports.
func WithCollections(itemsDir, weeksDir string) Option {
	return func(s *Store) {
		if itemsDir != "" {
			s.itemsDir = itemsDir
		}
		if weeksDir != "" {
			s.weeksDir = weeksDir
		}
	}
}

// WithExtension sets the document file extension, including the dot.
func WithExtension(ext string) Option {
	return func(s *Store) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// WithStrict makes any malformed document fail the load instead of being skipped.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithLogger sets where skipped documents are reported.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the content index for one generation run.
type Store struct {
	fsys     fs.FS
	itemsDir string
	weeksDir string
	ext      string
	strict   bool
	logger   *log.Logger

	once sync.Once
	idx  *index
	err  error
}

type index struct {
	items      []Item
	itemBySlug map[string]int
	weeks      []WeekReport
	weekBySlug map[string]int
	tags       []string
	tagItems   map[string][]int
	problems   []error
}

// New returns a Store reading from the directory root.
func New(root string, opts ...Option) *Store {
	return NewFS(os.DirFS(root), opts...)
}

// NewFS returns a Store reading from fsys.
func NewFS(fsys fs.FS, opts ...Option) *Store {
	s := &Store{
		fsys:     fsys,
		itemsDir: DefaultItemsDir,
		weeksDir: DefaultWeeksDir,
		ext:      DefaultExtension,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and indexes both collections. It runs once per Store; later
// calls return the first result.
func (s *Store) Load() error {
	_, err := s.index()
	return err
}

func (s *Store) index() (*index, error) {
	s.once.Do(func() {
		s.idx, s.err = s.build()
	})
	return s.idx, s.err
}

// Problems returns the malformed documents skipped during a lenient load.
func (s *Store) Problems() []error {
	idx, err := s.index()
	if err != nil {
		return nil
	}
	return slices.Clone(idx.problems)
}

// Items returns every item, highest score first. Equal scores keep load order.
func (s *Store) Items() ([]Item, error) {
	idx, err := s.index()
	if err != nil {
		return nil, err
	}
	return slices.Clone(idx.items), nil
}

// Item returns the item with slug. When no slug matches exactly, a trailing
// document extension is ignored.
func (s *Store) Item(slug string) (Item, error) {
	idx, err := s.index()
	if err != nil {
		return Item{}, err
	}
	i, ok := lookup(idx.itemBySlug, slug, s.ext)
	if !ok {
		return Item{}, fmt.Errorf("item %q: %w", slug, ErrDocumentNotFound)
	}
	return idx.items[i], nil
}

// Weeks returns every week report, latest week end first.
func (s *Store) Weeks() ([]WeekReport, error) {
	idx, err := s.index()
	if err != nil {
		return nil, err
	}
	return slices.Clone(idx.weeks), nil
}

// Week returns the week report with slug, matched like Item.
func (s *Store) Week(slug string) (WeekReport, error) {
	idx, err := s.index()
	if err != nil {
		return WeekReport{}, err
	}
	i, ok := lookup(idx.weekBySlug, slug, s.ext)
	if !ok {
		return WeekReport{}, fmt.Errorf("week %q: %w", slug, ErrDocumentNotFound)
	}
	return idx.weeks[i], nil
}

// LatestWeek returns the week report with the latest week end.
func (s *Store) LatestWeek() (WeekReport, error) {
	idx, err := s.index()
	if err != nil {
		return WeekReport{}, err
	}
	if len(idx.weeks) == 0 {
		return WeekReport{}, fmt.Errorf("latest week: %w", ErrDocumentNotFound)
	}
	return idx.weeks[0], nil
}

// Tags returns every distinct tag in ascending order.
func (s *Store) Tags() ([]string, error) {
	idx, err := s.index()
	if err != nil {
		return nil, err
	}
	return slices.Clone(idx.tags), nil
}

// ItemsByTag returns the items carrying tag in Items order. An unknown tag
// yields an empty slice.
func (s *Store) ItemsByTag(tag string) ([]Item, error) {
	idx, err := s.index()
	if err != nil {
		return nil, err
	}
	positions := idx.tagItems[tag]
	out := make([]Item, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.items[i])
	}
	return out, nil
}

func (s *Store) build() (*index, error) {
	idx := &index{}

	itemDocs, err := s.readCollection(s.itemsDir, idx)
	if err != nil {
		return nil, err
	}
	weekDocs, err := s.readCollection(s.weeksDir, idx)
	if err != nil {
		return nil, err
	}

	slugs := make(map[string]string, len(itemDocs))
	for _, doc := range itemDocs {
		slug := ResolveSlug(doc.Meta, doc.Name, s.ext)
		item, err := newItem(doc, slug)
		if err != nil {
			if err := s.skip(idx, err); err != nil {
				return nil, err
			}
			continue
		}
		if err := claimSlug(slugs, slug, doc.Path); err != nil {
			return nil, err
		}
		idx.items = append(idx.items, item)
	}

	slugs = make(map[string]string, len(weekDocs))
	for _, doc := range weekDocs {
		slug := ResolveSlug(doc.Meta, doc.Name, s.ext)
		week, err := newWeekReport(doc, slug)
		if err != nil {
			if err := s.skip(idx, err); err != nil {
				return nil, err
			}
			continue
		}
		if err := claimSlug(slugs, slug, doc.Path); err != nil {
			return nil, err
		}
		idx.weeks = append(idx.weeks, week)
	}

	sort.SliceStable(idx.items, func(i, j int) bool {
		return idx.items[i].Score > idx.items[j].Score
	})
	sort.SliceStable(idx.weeks, func(i, j int) bool {
		return idx.weeks[i].end.After(idx.weeks[j].end)
	})

	idx.itemBySlug = make(map[string]int, len(idx.items))
	idx.tagItems = make(map[string][]int)
	for i, item := range idx.items {
		idx.itemBySlug[item.Slug] = i
		seen := make(map[string]bool, len(item.Tags))
		for _, tag := range item.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			if _, ok := idx.tagItems[tag]; !ok {
				idx.tags = append(idx.tags, tag)
			}
			idx.tagItems[tag] = append(idx.tagItems[tag], i)
		}
	}
	sort.Strings(idx.tags)

	idx.weekBySlug = make(map[string]int, len(idx.weeks))
	for i, week := range idx.weeks {
		idx.weekBySlug[week.Slug] = i
	}

	return idx, nil
}

func (s *Store) readCollection(dir string, idx *index) ([]Document, error) {
	docs, problems, err := ReadDocuments(s.fsys, dir, s.ext)
	if err != nil {
		return nil, err
	}
	for _, p := range problems {
		if err := s.skip(idx, p); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// skip records a malformed document, or returns it when the store is strict.
func (s *Store) skip(idx *index, err error) error {
	if s.strict {
		return err
	}
	s.logger.Printf("Skipping %v", err)
	idx.problems = append(idx.problems, err)
	return nil
}

// lookup finds slug exactly, then without a trailing ext.
func lookup(bySlug map[string]int, slug, ext string) (int, bool) {
	if i, ok := bySlug[slug]; ok {
		return i, true
	}
	if trimmed := strings.TrimSuffix(slug, ext); trimmed != slug {
		i, ok := bySlug[trimmed]
		return i, ok
	}
	return 0, false
}

// claimSlug records slug for path. Only documents that made it into the
// index claim a slug, so a skipped document never blocks a valid one.
func claimSlug(slugs map[string]string, slug, path string) error {
	if first, ok := slugs[slug]; ok {
		return &DocumentError{
			Path: path,
			Err:  fmt.Errorf("%w %q, already used by %s", ErrDuplicateSlug, slug, first),
		}
	}
	slugs[slug] = path
	return nil
}

// IsNotFound reports whether err is a failed slug lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}
