package metadata

import (
	"context"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/sitecheck/internal/sourcefs"
	"github.com/jonathan/sitecheck/internal/types"
)

// secondaryFiles are co-located metadata declarations consulted after the page itself.
var secondaryFiles = []string{"metadata.ts", "metadata.js", "head.tsx", "head.jsx"}

// layoutFiles supply inherited title and description in app-router trees.
var layoutFiles = []string{"layout.tsx", "layout.jsx", "layout.ts", "layout.js"}

const defaultConcurrency = 8

// Options configures a Validator.
type Options struct {
	// Origin is the site origin, e.g. https://example.com.
	Origin string
	// DynamicHelpers are function names that build metadata from an external source.
	DynamicHelpers []string
	Strategies     []Strategy
	Concurrency    int
	Logger         *zap.Logger
}

// PageMetadata is the extraction result for one page.
type PageMetadata struct {
	Page     types.PageRecord `json:"page"`
	Declared Declared         `json:"declared"`
	OptOut   OptOut           `json:"optOut,omitempty"`
}

// Validator extracts and checks page metadata.
type Validator struct {
	fs     sourcefs.FS
	opts   Options
	logger *zap.Logger
}

// NewValidator creates a Validator.
func NewValidator(fsys sourcefs.FS, opts Options) *Validator {
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{fs: fsys, opts: opts, logger: logger}
}

// Extract reads every page with bounded overlap. Results keep the order of pages.
// A page whose sources cannot be read is logged and left out; only cancellation
// fails the batch.
func (v *Validator) Extract(ctx context.Context, pages []types.PageRecord) ([]PageMetadata, error) {
	results := make([]PageMetadata, len(pages))
	extracted := make([]bool, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.Concurrency)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			meta, err := v.ExtractPage(page)
			if err != nil {
				var extractionErr *ExtractionError
				if !errors.As(err, &extractionErr) {
					return err
				}
				v.logger.Warn("skipping page with unreadable metadata",
					zap.String("route", page.RoutePath),
					zap.Error(err))
				return nil
			}
			results[i] = meta
			extracted[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metas := make([]PageMetadata, 0, len(pages))
	for i, meta := range results {
		if extracted[i] {
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

// ExtractPage extracts the metadata of one page: the page source first, then its
// secondary metadata files, then title and description inherited from layouts.
func (v *Validator) ExtractPage(page types.PageRecord) (PageMetadata, error) {
	text, err := v.fs.ReadText(page.SourcePath)
	if err != nil {
		return PageMetadata{}, &ExtractionError{Path: page.SourcePath, Message: "failed to read page source", Cause: err}
	}

	declared := Extract(NewSource(page.SourcePath, text, v.opts.Origin), v.opts.Strategies)
	optOut := DetectOptOut(text, declared, v.opts.DynamicHelpers)

	dir := path.Dir(page.SourcePath)
	for _, name := range secondaryFiles {
		secondary := path.Join(dir, name)
		if secondary == page.SourcePath || !v.fs.Exists(secondary) {
			continue
		}
		secondaryText, err := v.fs.ReadText(secondary)
		if err != nil {
			return PageMetadata{}, &ExtractionError{Path: secondary, Message: "failed to read metadata file", Cause: err}
		}
		fromSecondary := Extract(NewSource(secondary, secondaryText, v.opts.Origin), v.opts.Strategies)
		declared.merge(fromSecondary)
		if optOut == OptOutNone {
			optOut = DetectOptOut(secondaryText, fromSecondary, v.opts.DynamicHelpers)
		}
	}

	if isAppRouterPage(page.SourcePath) && (declared.Title == nil || declared.Description == nil) {
		inherited, err := v.inheritFromLayouts(dir)
		if err != nil {
			return PageMetadata{}, err
		}
		if declared.Title == nil {
			declared.Title = inherited.Title
		}
		if declared.Description == nil {
			declared.Description = inherited.Description
		}
	}

	if optOut != OptOutNone {
		v.logger.Debug("page metadata opted out",
			zap.String("route", page.RoutePath),
			zap.String("reason", string(optOut)))
	}
	return PageMetadata{Page: page, Declared: declared, OptOut: optOut}, nil
}

// inheritFromLayouts walks from dir up to the app root, nearest layout first.
func (v *Validator) inheritFromLayouts(dir string) (Declared, error) {
	var inherited Declared
	for {
		for _, name := range layoutFiles {
			layout := path.Join(dir, name)
			if !v.fs.Exists(layout) {
				continue
			}
			text, err := v.fs.ReadText(layout)
			if err != nil {
				return Declared{}, &ExtractionError{Path: layout, Message: "failed to read layout", Cause: err}
			}
			fromLayout := StructuredStrategy{}.Extract(NewSource(layout, text, v.opts.Origin))
			inherited.merge(Declared{Title: fromLayout.Title, Description: fromLayout.Description})
		}
		if path.Base(dir) == "app" || dir == "." || dir == "/" {
			return inherited, nil
		}
		dir = path.Dir(dir)
	}
}

func isAppRouterPage(sourcePath string) bool {
	base := path.Base(sourcePath)
	if !strings.HasPrefix(base, "page.") {
		return false
	}
	return strings.HasPrefix(sourcePath, "app/") || strings.Contains(sourcePath, "/app/")
}

// checked reports whether a page's metadata is subject to checks.
func checked(meta PageMetadata) bool {
	return meta.Page.IsIndexable && meta.OptOut == OptOutNone
}

// CheckMeta extracts metadata for pages and returns title/description issues for the
// indexable, non-opted-out ones.
func (v *Validator) CheckMeta(ctx context.Context, pages []types.PageRecord) ([]types.Issue, error) {
	metas, err := v.Extract(ctx, pages)
	if err != nil {
		return nil, err
	}
	issues := []types.Issue{}
	for _, meta := range metas {
		if checked(meta) {
			issues = append(issues, CheckMeta(meta.Page.RoutePath, meta.Declared)...)
		}
	}
	return issues, nil
}

// CheckCanonicals extracts metadata for pages and returns canonical, Open Graph and
// duplicate-canonical issues for the indexable, non-opted-out ones.
func (v *Validator) CheckCanonicals(ctx context.Context, pages []types.PageRecord) ([]types.Issue, error) {
	metas, err := v.Extract(ctx, pages)
	if err != nil {
		return nil, err
	}

	issues := []types.Issue{}
	var entries []CanonicalEntry
	for _, meta := range metas {
		if !checked(meta) {
			continue
		}
		issues = append(issues, CheckCanonical(meta.Page.RoutePath, meta.Declared, v.opts.Origin)...)
		if meta.Declared.Canonical != nil {
			entries = append(entries, CanonicalEntry{Route: meta.Page.RoutePath, Canonical: *meta.Declared.Canonical})
		}
	}
	return append(issues, FindDuplicates(entries)...), nil
}
