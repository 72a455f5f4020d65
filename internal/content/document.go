package content

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

var utf8BOM = []byte("\ufeff")

// Document is one parsed source file.
type Document struct {
	Path string // path inside the document root, slash separated
	Name string // base file name
	Meta Metadata
	Body string
}

// ParseDocument splits src into its front matter and body and normalizes the
// front matter. The front matter must open on the first line with "---" and be
// closed by another "---" line; its YAML must be a mapping.
func ParseDocument(name string, src []byte) (Document, error) {
	header, body, err := splitFrontMatter(src)
	if err != nil {
		return Document{}, malformed(name, "%v", err)
	}

	meta, err := decodeFrontMatter(header)
	if err != nil {
		return Document{}, malformed(name, "%v", err)
	}

	return Document{
		Path: name,
		Name: path.Base(name),
		Meta: NormalizeMetadata(meta),
		Body: string(body),
	}, nil
}

// ReadDocuments parses every file in dir whose name ends with ext, in file
// name order. Sub-directories are not descended into. Documents that fail to
// parse are returned in problems and left out of docs; err is only set when
// the directory itself cannot be read.
func ReadDocuments(fsys fs.FS, dir, ext string) (docs []Document, problems []error, err error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		p := path.Join(dir, entry.Name())
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", p, err)
		}
		doc, err := ParseDocument(p, src)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, problems, nil
}

// ResolveSlug returns the explicit slug from meta, or the file name without ext.
func ResolveSlug(meta Metadata, name, ext string) string {
	if v, ok := meta.Get("slug"); ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return strings.TrimSuffix(path.Base(name), ext)
}

func splitFrontMatter(src []byte) (header, body []byte, err error) {
	src = bytes.TrimPrefix(src, utf8BOM)

	first, rest, _ := bytes.Cut(src, []byte("\n"))
	if !isDelimiter(first) {
		return nil, nil, fmt.Errorf("missing opening %q delimiter", frontMatterDelimiter)
	}

	for pos := 0; pos < len(rest); {
		line, _, found := bytes.Cut(rest[pos:], []byte("\n"))
		if isDelimiter(line) {
			next := pos + len(line)
			if found {
				next++
			}
			return rest[:pos], rest[next:], nil
		}
		if !found {
			break
		}
		pos += len(line) + 1
	}
	return nil, nil, fmt.Errorf("missing closing %q delimiter", frontMatterDelimiter)
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == frontMatterDelimiter
}

func decodeFrontMatter(header []byte) (Metadata, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(header, &root); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return Metadata{}, nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 {
		return Metadata{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter must be a mapping (line %d)", node.Line)
	}

	v, err := decodeNode(node)
	if err != nil {
		return nil, err
	}
	return v.(Metadata), nil
}

// decodeNode turns a YAML node into plain values. Timestamp scalars decode to
// time.Time; Normalize turns them into date strings afterwards.
func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		md := make(Metadata, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			if seen[k.Value] {
				return nil, fmt.Errorf("line %d: key %q defined twice", k.Line, k.Value)
			}
			seen[k.Value] = true
			value, err := decodeNode(v)
			if err != nil {
				return nil, err
			}
			md = append(md, Field{Key: k.Value, Value: value})
		}
		return md, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			value, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			var t time.Time
			if err := n.Decode(&t); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return t, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		// NaN and infinities have no JSON form and no order
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return nil, fmt.Errorf("line %d: %q is not a finite number", n.Line, n.Value)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
