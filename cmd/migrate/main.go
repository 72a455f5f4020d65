package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/aktagon/ai-weekly/internal/content"
)

const ext = content.DefaultExtension

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <add-slugs|remove-duplicates> <content-directory>")
	}

	command := os.Args[1]
	contentDir := os.Args[2]

	switch command {
	case "add-slugs":
		if err := addSlugs(contentDir); err != nil {
			log.Fatal(err)
		}
	case "remove-duplicates":
		if err := removeDuplicates(contentDir, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

// addSlugs writes the file-name slug into every document without one, so
// that renaming the file no longer changes the page URL.
func addSlugs(contentDir string) error {
	return filepath.WalkDir(contentDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on errors
		}

		if !d.IsDir() && strings.HasSuffix(path, ext) {
			if err := addSlug(path); err != nil {
				log.Printf("Error processing %s: %v", path, err)
			}
		}

		return nil
	})
}

func addSlug(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", path, err)
	}

	doc, err := content.ParseDocument(filepath.Base(path), src)
	if err != nil {
		return err
	}
	v, hasKey := doc.Meta.Get("slug")
	if hasKey && v != nil && fmt.Sprint(v) != "" {
		log.Printf("File %s already has a slug, skipping", doc.Name)
		return nil
	}
	// An empty or null slug resolves to the file name, like a missing one
	slug := content.ResolveSlug(doc.Meta, doc.Name, ext)

	value, err := yaml.Marshal(slug)
	if err != nil {
		return fmt.Errorf("encoding slug: %w", err)
	}

	lines := bytes.SplitAfter(src, []byte("\n"))
	eol := "\n"
	if bytes.HasSuffix(lines[0], []byte("\r\n")) {
		eol = "\r\n"
	}
	line := []byte(fmt.Sprintf("slug: %s%s", bytes.TrimSpace(value), eol))

	if hasKey {
		i := slugLine(lines)
		if i < 0 {
			return fmt.Errorf("cannot find the empty slug key in %s", doc.Name)
		}
		lines[i] = line
	} else {
		// The opening delimiter is the first line; the slug goes right below it
		lines = append(lines[:1], append([][]byte{line}, lines[1:]...)...)
	}

	log.Printf("Adding slug %s to %s", slug, doc.Name)
	return atomic.WriteFile(path, bytes.NewReader(bytes.Join(lines, nil)))
}

// slugLine returns the index of the top-level slug key inside the front
// matter, or -1.
func slugLine(lines [][]byte) int {
	for i := 1; i < len(lines); i++ {
		line := bytes.TrimRight(lines[i], " \t\r\n")
		if string(line) == "---" {
			break
		}
		if bytes.HasPrefix(line, []byte("slug:")) {
			return i
		}
	}
	return -1
}

// removeDuplicates finds documents in the same directory that resolve to the
// same slug and asks which ones to delete. The first file in name order is kept.
func removeDuplicates(contentDir string, in io.Reader, out io.Writer) error {
	slugToFiles := make(map[string][]string)
	reader := bufio.NewReader(in)

	if err := filepath.WalkDir(contentDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on errors
		}

		if !d.IsDir() && strings.HasSuffix(path, ext) {
			src, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Error reading %s: %v", path, err)
				return nil
			}
			doc, err := content.ParseDocument(filepath.Base(path), src)
			if err != nil {
				log.Printf("Skipping %s: %v", path, err)
				return nil
			}
			key := filepath.Join(filepath.Dir(path), content.ResolveSlug(doc.Meta, doc.Name, ext))
			slugToFiles[key] = append(slugToFiles[key], path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}

	keys := make([]string, 0, len(slugToFiles))
	for key := range slugToFiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	totalRemoved := 0
	for _, key := range keys {
		files := slugToFiles[key]
		if len(files) <= 1 {
			continue
		}

		fmt.Fprintf(out, "\nFound %d documents with slug %s:\n", len(files), filepath.Base(key))
		for i, file := range files {
			fileName := filepath.Base(file)
			if i == 0 {
				fmt.Fprintf(out, "  KEEP: %s\n", fileName)
				continue
			}

			if confirmDelete(reader, out, file) {
				if err := os.Remove(file); err != nil {
					log.Printf("Error removing %s: %v", file, err)
				} else {
					totalRemoved++
					fmt.Fprintf(out, "  REMOVED: %s\n", fileName)
				}
			} else {
				fmt.Fprintf(out, "  SKIP: %s\n", fileName)
			}
		}
	}

	fmt.Fprintf(out, "\nRemoved %d duplicate files\n", totalRemoved)
	return nil
}

func confirmDelete(reader *bufio.Reader, out io.Writer, path string) bool {
	for {
		fmt.Fprintf(out, "  DELETE %s? [y/N]: ", filepath.Base(path))
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			if err != io.EOF {
				log.Printf("Error reading input: %v", err)
			}
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Fprintln(out, "  Please enter y or n.")
			if err != nil {
				return false
			}
		}
	}
}
