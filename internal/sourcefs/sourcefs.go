// Package sourcefs provides the read-only file system capability shared by every analyzer.
//
// All paths are slash-separated and relative to the tree root. Analyzers never touch
// the os package directly, so tests can substitute an in-memory fstest.MapFS.
package sourcefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheEntries bounds the number of source texts kept in memory between stages.
const defaultCacheEntries = 2048

// FS is the capability analyzers depend on.
type FS interface {
	// Glob returns the sorted, de-duplicated files matching any pattern and no ignore pattern.
	Glob(patterns []string, ignore []string) ([]string, error)
	// ReadText returns a file decoded as UTF-8 text.
	ReadText(name string) (string, error)
	// ReadBytes returns the raw bytes of a file.
	ReadBytes(name string) ([]byte, error)
	// Size returns the size of a file in bytes.
	Size(name string) (int64, error)
	// Exists reports whether a regular file exists at name.
	Exists(name string) bool
}

// ReadError represents a failure reading from the source tree
type ReadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("read error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("read error: %s: %s", e.Path, e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// Tree implements FS on top of an fs.FS with a bounded cache of decoded source text.
type Tree struct {
	fsys  fs.FS
	texts *lru.Cache[string, string]

	mu    sync.Mutex
	globs map[string][]string
}

// NewTree wraps fsys. The text cache holds at most cacheEntries files; zero uses the default.
func NewTree(fsys fs.FS, cacheEntries int) (*Tree, error) {
	if cacheEntries <= 0 {
		cacheEntries = defaultCacheEntries
	}
	cache, err := lru.New[string, string](cacheEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create text cache: %w", err)
	}
	return &Tree{
		fsys:  fsys,
		texts: cache,
		globs: make(map[string][]string),
	}, nil
}

// NewOSTree returns a Tree rooted at a directory on disk. See NewTree for cacheEntries.
func NewOSTree(root string, cacheEntries int) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &ReadError{Path: root, Message: "cannot open source root", Cause: err}
	}
	if !info.IsDir() {
		return nil, &ReadError{Path: root, Message: "source root is not a directory"}
	}
	return NewTree(os.DirFS(root), cacheEntries)
}

// Glob expands each pattern with doublestar semantics (`**` crosses directories,
// `{a,b}` alternation) and drops matches hit by any ignore pattern.
func (t *Tree) Glob(patterns []string, ignore []string) ([]string, error) {
	seen := make(map[string]bool)
	var matches []string

	for _, pattern := range patterns {
		found, err := t.globPattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
		}
		for _, name := range found {
			if seen[name] || isIgnored(name, ignore) {
				continue
			}
			seen[name] = true
			matches = append(matches, name)
		}
	}

	sort.Strings(matches)
	return matches, nil
}

func (t *Tree) globPattern(pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(path.Clean(pattern), "./")

	t.mu.Lock()
	cached, ok := t.globs[pattern]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}

	// doublestar misreads directory names containing '[' while walking an
	// alternation, so alternatives are expanded here and globbed one by one.
	var found []string
	for _, expanded := range expandBraces(pattern) {
		matches, err := doublestar.Glob(t.fsys, expanded, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			// A missing root directory is not an error, it just matches nothing.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		found = append(found, matches...)
	}

	t.mu.Lock()
	t.globs[pattern] = found
	t.mu.Unlock()
	return found, nil
}

// expandBraces rewrites `{a,b}` alternations, nested ones included, into the list of
// plain patterns they stand for. Unbalanced braces are left as written.
func expandBraces(pattern string) []string {
	open := -1
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' {
			i++
			continue
		}
		if pattern[i] == '{' {
			open = i
			break
		}
	}
	if open < 0 {
		return []string{pattern}
	}

	depth := 0
	start := open + 1
	var alternatives []string
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				alternatives = append(alternatives, pattern[start:i])
				prefix, suffix := pattern[:open], pattern[i+1:]
				var out []string
				for _, alt := range alternatives {
					out = append(out, expandBraces(prefix+alt+suffix)...)
				}
				return out
			}
		case ',':
			if depth == 1 {
				alternatives = append(alternatives, pattern[start:i])
				start = i + 1
			}
		}
	}
	return []string{pattern}
}

func isIgnored(name string, ignore []string) bool {
	for _, pattern := range ignore {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ReadText reads and caches a text file.
func (t *Tree) ReadText(name string) (string, error) {
	name = clean(name)
	if text, ok := t.texts.Get(name); ok {
		return text, nil
	}

	data, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		return "", &ReadError{Path: name, Message: "failed to read file", Cause: err}
	}
	text := strings.ToValidUTF8(string(data), "�")
	t.texts.Add(name, text)
	return text, nil
}

// ReadBytes reads a file without caching; image payloads are read once per run.
func (t *Tree) ReadBytes(name string) ([]byte, error) {
	name = clean(name)
	data, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		return nil, &ReadError{Path: name, Message: "failed to read file", Cause: err}
	}
	return data, nil
}

// Size stats a file.
func (t *Tree) Size(name string) (int64, error) {
	name = clean(name)
	info, err := fs.Stat(t.fsys, name)
	if err != nil {
		return 0, &ReadError{Path: name, Message: "failed to stat file", Cause: err}
	}
	if info.IsDir() {
		return 0, &ReadError{Path: name, Message: "path is a directory"}
	}
	return info.Size(), nil
}

// Exists reports whether name is an existing regular file.
func (t *Tree) Exists(name string) bool {
	name = clean(name)
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(t.fsys, name)
	return err == nil && !info.IsDir()
}

// Reset drops cached texts and glob expansions, e.g. between watch iterations.
func (t *Tree) Reset() {
	t.texts.Purge()
	t.mu.Lock()
	t.globs = make(map[string][]string)
	t.mu.Unlock()
}

// Clean normalizes a tree-relative path: slash separators, no leading "./" or "/".
func Clean(name string) string {
	return clean(name)
}

func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}
