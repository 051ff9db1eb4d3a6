package vault

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vaultsearch/vaultsearch/internal/logging"
	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// defaultExcludeDirs mirrors the exclusion rules of the vault this engine
// was distilled from: dot-directories, a vendored-utilities directory, and
// the usual language-tooling caches.
var defaultExcludeDirs = map[string]bool{
	"Utilities":    true,
	".venv":        true,
	"venv":         true,
	"node_modules": true,
}

var filenameDatePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// Reader walks a vault directory and produces Documents.
//
// excludeCache memoizes the per-path exclusion decision for the lifetime
// of this Reader. index.Manager creates a new Reader for every reindex, so
// decisions are not carried from one reindex to the next.
type Reader struct {
	Root         string
	excludeCache *lru.Cache[string, bool]
}

// NewReader creates a Reader rooted at root.
func NewReader(root string) (*Reader, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, vaulterr.Wrap(vaulterr.VaultRead, err)
	}
	cache, err := lru.New[string, bool](2048)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.VaultRead, err)
	}
	return &Reader{Root: root, excludeCache: cache}, nil
}

// Walk recursively enumerates Markdown files under Root, reads each, and
// returns the resulting Documents in sorted relative-path order. A file
// that cannot be read or decoded as UTF-8 is logged and skipped; it never
// aborts the walk.
func (r *Reader) Walk() ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(r.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: skip, don't abort the walk
		}
		rel, rerr := filepath.Rel(r.Root, path)
		if rerr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if r.excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if r.excluded(rel, false) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.VaultRead, err)
	}
	sort.Strings(paths)

	// Reads are independent (no shared mutable state touched by readFile),
	// so fan them out across a pool sized to hardware instead of reading
	// one file at a time; results land in a pre-sized slice so the
	// sorted-path order from above survives the concurrent reads.
	docs := make([]Document, len(paths))
	read := make([]bool, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			doc, err := r.readFile(p)
			if err != nil {
				logging.Default().Warn("skipping unreadable vault file", "path", p, "error", err)
				return nil
			}
			docs[i] = doc
			read[i] = true
			return nil
		})
	}
	_ = g.Wait() // readFile failures are logged and skipped, never propagated

	out := make([]Document, 0, len(paths))
	for i, ok := range read {
		if ok {
			out = append(out, docs[i])
		}
	}
	return out, nil
}

// excluded reports whether the given path (relative to Root) should be
// skipped: any path segment beginning with '.', or a segment matching the
// built-in defaultExcludeDirs.
func (r *Reader) excluded(rel string, isDir bool) bool {
	if cached, ok := r.excludeCache.Get(rel); ok {
		return cached
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	excl := false
	for _, part := range parts {
		if part == "" || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			excl = true
			break
		}
		if defaultExcludeDirs[part] {
			excl = true
			break
		}
	}
	r.excludeCache.Add(rel, excl)
	return excl
}

// readFile reads a single vault file and produces its Document.
func (r *Reader) readFile(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	if !utf8.Valid(raw) {
		return Document{}, vaulterr.New(vaulterr.VaultRead, "not valid utf-8", nil)
	}
	content := string(raw)

	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return Document{}, err
	}
	rel = filepath.ToSlash(rel)

	info, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}

	frontmatter, body := parseFrontmatter(content)

	title := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	if v, ok := frontmatter["title"].(string); ok && v != "" {
		title = v
	}

	tags := extractTags(frontmatter)
	created := extractCreatedDate(frontmatter, rel, info.ModTime())
	cleaned := cleanContent(body)

	doc := Document{
		RelativePath:  rel,
		Title:         title,
		RawBody:       body,
		CleanedBody:   cleaned,
		Tags:          tags,
		Frontmatter:   frontmatter,
		CreatedDate:   created,
		ModifiedTime:  info.ModTime(),
		ContentLength: len(cleaned),
	}
	return doc, nil
}

// parseFrontmatter splits a leading '---'-delimited YAML block from the
// rest of the document. A malformed block is treated as no front-matter at
// all: the caller gets the full original text back as body.
func parseFrontmatter(content string) (map[string]any, string) {
	const delim = "---"
	if !strings.HasPrefix(content, delim) {
		return nil, content
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() { // consume the opening delimiter line
		return nil, content
	}

	var yamlLines []string
	closed := false
	consumed := len(delim) + 1 // opening line + newline, approx
	for scanner.Scan() {
		line := scanner.Text()
		consumed += len(line) + 1
		if strings.TrimSpace(line) == delim {
			closed = true
			break
		}
		yamlLines = append(yamlLines, line)
	}
	if !closed {
		return nil, content
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &fm); err != nil || fm == nil {
		return nil, content
	}

	rest := content[min(consumed, len(content)):]
	rest = strings.TrimPrefix(rest, "\n")
	return fm, rest
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// extractTags collects only structured front-matter tags. Inline #hashtag
// tokens in the body are deliberately not treated as tags.
func extractTags(fm map[string]any) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		tags = append(tags, s)
	}

	switch v := raw.(type) {
	case string:
		add(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return tags
}

// extractCreatedDate tries, in order: frontmatter.created (ISO date or
// datetime), a YYYY-MM-DD pattern in the filename, then falls back to the
// file's modification time.
func extractCreatedDate(fm map[string]any, relPath string, modTime time.Time) time.Time {
	if fm != nil {
		if raw, ok := fm["created"]; ok {
			switch v := raw.(type) {
			case string:
				if t, err := parseFlexibleDate(v); err == nil {
					return t
				}
			case time.Time:
				return v
			}
		}
	}
	if m := filenameDatePattern.FindString(relPath); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}
	return modTime
}

func parseFlexibleDate(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

var (
	wikiLinkPattern  = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	inlineLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingPattern   = regexp.MustCompile(`#+\s*`)
	boldPattern      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern    = regexp.MustCompile(`\*([^*]+)\*`)
	codePattern      = regexp.MustCompile("`([^`]+)`")
	newlinesPattern  = regexp.MustCompile(`\n+`)
)

// cleanContent strips Markdown formatting for embedding and lexical
// indexing: wiki-links and inline links are reduced to their label text,
// heading/emphasis/code markers are removed, and newlines collapse to
// single spaces.
func cleanContent(content string) string {
	content = wikiLinkPattern.ReplaceAllString(content, "$1")
	content = inlineLinkPattern.ReplaceAllString(content, "$1")
	content = headingPattern.ReplaceAllString(content, "")
	content = boldPattern.ReplaceAllString(content, "$1")
	content = italicPattern.ReplaceAllString(content, "$1")
	content = codePattern.ReplaceAllString(content, "$1")
	content = newlinesPattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
