// Package inventory enumerates page source files and derives their route identity and indexability.
package inventory

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/sitecheck/internal/sourcefs"
	"github.com/jonathan/sitecheck/internal/types"
)

// Router selects how file paths under a page root map to routes.
type Router string

const (
	// RouterApp treats only page.* files as pages and uses their directory as the route.
	RouterApp Router = "app"
	// RouterPages treats every markup file as a page named after its path.
	RouterPages Router = "pages"
)

// PageRoot is a directory of page sources and the routing convention it follows.
type PageRoot struct {
	Dir    string `mapstructure:"dir" validate:"required"`
	Router Router `mapstructure:"router" validate:"oneof=app pages"`
}

// DefaultPageRoots covers the common Next.js layouts.
func DefaultPageRoots() []PageRoot {
	return []PageRoot{
		{Dir: "app", Router: RouterApp},
		{Dir: "src/app", Router: RouterApp},
		{Dir: "pages", Router: RouterPages},
		{Dir: "src/pages", Router: RouterPages},
	}
}

// pageExtensions are the markup source extensions considered page files.
var pageExtensions = []string{".tsx", ".jsx", ".ts", ".js", ".mdx"}

var (
	catchAllSegment = regexp.MustCompile(`^\[\[?\.\.\.[^\]]+\]\]?$`)
	dynamicSegment  = regexp.MustCompile(`^\[[^\].]+\]$`)
	httpErrorName   = regexp.MustCompile(`^[0-9]{3}$`)
)

// CatchAllMarker replaces catch-all segments in derived routes.
const CatchAllMarker = "*"

// Options configures a Scanner.
type Options struct {
	Roots   []PageRoot
	Exclude []string // extra doublestar patterns relative to the tree root
	Logger  *zap.Logger
}

// Scanner builds the page inventory of a source tree.
type Scanner struct {
	fs      sourcefs.FS
	roots   []PageRoot
	exclude []string
	logger  *zap.Logger
}

// NewScanner creates a Scanner over fsys. Empty roots fall back to DefaultPageRoots.
func NewScanner(fsys sourcefs.FS, opts Options) *Scanner {
	roots := opts.Roots
	if len(roots) == 0 {
		roots = DefaultPageRoots()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{fs: fsys, roots: roots, exclude: opts.Exclude, logger: logger}
}

// Scan enumerates all page sources and returns one record per page, sorted by route
// and then by source path.
func (s *Scanner) Scan(ctx context.Context) ([]types.PageRecord, error) {
	var records []types.PageRecord

	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return nil, &ScanError{Message: "scan cancelled", Cause: err}
		}

		dir := sourcefs.Clean(root.Dir)
		files, err := s.fs.Glob(rootPatterns(dir, root.Router), s.exclude)
		if err != nil {
			return nil, &ScanError{Message: fmt.Sprintf("failed to enumerate %s", dir), Cause: err}
		}

		for _, file := range files {
			rel := strings.TrimPrefix(file, dir+"/")
			segments, ok := routeSegments(rel, root.Router)
			if !ok || isExcluded(segments, rel) {
				continue
			}
			records = append(records, NewPageRecord(file, segments))
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RoutePath != records[j].RoutePath {
			return records[i].RoutePath < records[j].RoutePath
		}
		return records[i].SourcePath < records[j].SourcePath
	})

	s.logger.Debug("page inventory scanned", zap.Int("pages", len(records)))
	return records, nil
}

func rootPatterns(dir string, router Router) []string {
	exts := make([]string, 0, len(pageExtensions))
	for _, ext := range pageExtensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	alternation := "{" + strings.Join(exts, ",") + "}"
	if router == RouterApp {
		return []string{path.Join(dir, "**", "page."+alternation)}
	}
	return []string{path.Join(dir, "**", "*."+alternation)}
}

// routeSegments converts a root-relative source path into raw route segments. The
// second return is false when the file is not a page under the root's convention.
func routeSegments(rel string, router Router) ([]string, bool) {
	ext := path.Ext(rel)
	if !hasPageExtension(ext) {
		return nil, false
	}
	trimmed := strings.TrimSuffix(rel, ext)

	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	switch router {
	case RouterApp:
		if len(parts) == 0 || parts[len(parts)-1] != "page" {
			return nil, false
		}
		parts = parts[:len(parts)-1]
	default:
		if len(parts) > 0 && parts[len(parts)-1] == "index" {
			parts = parts[:len(parts)-1]
		}
	}

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		// Route groups and parallel-route slots never appear in the URL.
		if isRouteGroup(part) || strings.HasPrefix(part, "@") {
			continue
		}
		segments = append(segments, part)
	}
	return segments, true
}

func hasPageExtension(ext string) bool {
	for _, candidate := range pageExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func isRouteGroup(segment string) bool {
	return strings.HasPrefix(segment, "(") && strings.HasSuffix(segment, ")")
}

// isExcluded drops API routes, framework-reserved files, admin and portal paths.
func isExcluded(segments []string, rel string) bool {
	if len(segments) > 0 && segments[0] == "api" {
		return true
	}
	parts := strings.Split(rel, "/")
	for _, part := range parts {
		if strings.HasPrefix(part, "_") {
			return true
		}
	}
	base := parts[len(parts)-1]
	if httpErrorName.MatchString(strings.TrimSuffix(base, path.Ext(base))) {
		return true
	}
	if len(segments) > 0 && segments[0] == "admin" {
		return true
	}
	for _, segment := range segments {
		if segment == "portal" {
			return true
		}
	}
	return false
}

// NewPageRecord derives the route, page type and indexability of one page source.
func NewPageRecord(sourcePath string, segments []string) types.PageRecord {
	pageType := types.PageTypeStatic
	normalized := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch {
		case catchAllSegment.MatchString(segment):
			pageType = types.PageTypeCatchAll
			normalized = append(normalized, CatchAllMarker)
		case dynamicSegment.MatchString(segment):
			if pageType != types.PageTypeCatchAll {
				pageType = types.PageTypeDynamic
			}
			normalized = append(normalized, segment)
		default:
			normalized = append(normalized, segment)
		}
	}

	record := types.PageRecord{
		SourcePath: sourcePath,
		RoutePath:  "/" + strings.Join(normalized, "/"),
		PageType:   pageType,
	}
	record.Reason = Classify(record.RoutePath, pageType)
	record.IsIndexable = record.Reason == ""
	return record
}
