package images

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/sitecheck/internal/sourcefs"
	"github.com/jonathan/sitecheck/internal/types"
)

// Mode selects which physical files are validated.
type Mode string

const (
	// ModeRuntime validates only files resolved from live source references.
	ModeRuntime Mode = "runtime"
	// ModeInventory also walks the asset tree and reports unreferenced files as backlog.
	ModeInventory Mode = "inventory"
)

// DefaultSourcePatterns are the source files scanned for image references.
var DefaultSourcePatterns = []string{
	"app/**/*.{tsx,jsx,ts,js,mdx,md,html}",
	"pages/**/*.{tsx,jsx,ts,js,mdx,md,html}",
	"components/**/*.{tsx,jsx,ts,js,mdx,md,html}",
	"src/**/*.{tsx,jsx,ts,js,mdx,md,html}",
	"content/**/*.{mdx,md,html}",
}

// DefaultIgnorePatterns are never scanned for references.
var DefaultIgnorePatterns = []string{
	"**/node_modules/**",
	"**/*.test.*",
	"**/*.spec.*",
	"**/*.d.ts",
}

const defaultConcurrency = 8

// Options configures a Validator.
type Options struct {
	Mode           Mode
	IncludeBacklog bool
	// SkipFormat disables the JPEG modern-sibling check.
	SkipFormat     bool
	SourcePatterns []string
	Ignore         []string
	PublicDir      string
	Thresholds     Thresholds
	Concurrency    int
	Logger         *zap.Logger
}

// Report is the outcome of one image validation pass.
type Report struct {
	References   int           `json:"references"`
	Unresolved   int           `json:"unresolved"`
	FilesChecked int           `json:"filesChecked"`
	Issues       []types.Issue `json:"issues"`
	// Backlog holds issues of unreferenced asset files. It never counts as actionable.
	Backlog []types.Issue `json:"backlog"`
}

// Validator scans sources for image references and validates the referenced files.
type Validator struct {
	fs       sourcefs.FS
	resolver *Resolver
	opts     Options
	logger   *zap.Logger
}

// NewValidator creates a Validator with defaults applied to zero-valued options.
func NewValidator(fsys sourcefs.FS, opts Options) *Validator {
	if opts.Mode == "" {
		opts.Mode = ModeRuntime
	}
	if len(opts.SourcePatterns) == 0 {
		opts.SourcePatterns = DefaultSourcePatterns
	}
	if opts.Ignore == nil {
		opts.Ignore = DefaultIgnorePatterns
	}
	if opts.PublicDir == "" {
		opts.PublicDir = "public"
	}
	if opts.Thresholds.MaxFileSize <= 0 {
		opts.Thresholds.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Thresholds.MaxDimension <= 0 {
		opts.Thresholds.MaxDimension = DefaultMaxDimension
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		fs:       fsys,
		resolver: NewResolver(fsys, opts.PublicDir),
		opts:     opts,
		logger:   logger,
	}
}

// ScanReferences reads every source file and returns the image references in file and
// line order.
func (v *Validator) ScanReferences(ctx context.Context) ([]Reference, error) {
	files, err := v.fs.Glob(v.opts.SourcePatterns, v.opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate image sources: %w", err)
	}

	perFile := make([][]Reference, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.Concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := v.fs.ReadText(file)
			if err != nil {
				// One unreadable source must not hide the references in the others.
				v.logger.Warn("skipping unreadable source", zap.String("file", file), zap.Error(err))
				return nil
			}
			perFile[i] = ScanSource(file, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var refs []Reference
	for _, fileRefs := range perFile {
		refs = append(refs, fileRefs...)
	}
	return refs, nil
}

// Run scans references, checks their alt text and validates the resolved files.
func (v *Validator) Run(ctx context.Context) (*Report, error) {
	refs, err := v.ScanReferences(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{References: len(refs), Issues: []types.Issue{}, Backlog: []types.Issue{}}

	// Alt text issues come first, in reference order.
	for _, ref := range refs {
		if ref.AltDynamic {
			continue
		}
		report.Issues = append(report.Issues, ValidateAltText(ref.Alt, ref.Subject())...)
	}

	// First reference per resolved file supplies the issue subject.
	subjects := make(map[string]string)
	for _, ref := range refs {
		resolved, status := v.resolver.Resolve(ref)
		switch status {
		case Resolved:
			if _, seen := subjects[resolved]; !seen {
				subjects[resolved] = ref.Subject()
			}
		case Unresolved:
			report.Unresolved++
			v.logger.Debug("unresolved image reference",
				zap.String("file", ref.File),
				zap.Int("line", ref.Line),
				zap.String("src", ref.Src),
				zap.String("resolved", resolved))
		}
	}

	actionable := sortedKeys(subjects)
	fileIssues, err := v.checkFiles(ctx, actionable, func(name string) string { return subjects[name] })
	if err != nil {
		return nil, err
	}
	report.Issues = append(report.Issues, fileIssues...)
	report.FilesChecked = len(actionable)

	if v.opts.Mode == ModeInventory || v.opts.IncludeBacklog {
		backlog, err := v.unreferencedAssets(subjects)
		if err != nil {
			return nil, err
		}
		backlogIssues, err := v.checkFiles(ctx, backlog, func(name string) string { return name })
		if err != nil {
			return nil, err
		}
		report.Backlog = backlogIssues
		report.FilesChecked += len(backlog)
	}

	if report.Unresolved > 0 {
		v.logger.Info("image references could not be resolved", zap.Int("count", report.Unresolved))
	}
	v.logger.Debug("image validation finished",
		zap.Int("references", report.References),
		zap.Int("files", report.FilesChecked),
		zap.Int("issues", len(report.Issues)),
		zap.Int("backlog", len(report.Backlog)))
	return report, nil
}

// checkFiles validates files with bounded overlap and concatenates issues in input order.
func (v *Validator) checkFiles(ctx context.Context, files []string, subject func(string) string) ([]types.Issue, error) {
	perFile := make([][]types.Issue, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.Concurrency)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			issues, err := CheckFile(v.fs, name, subject(name), v.opts.Thresholds, !v.opts.SkipFormat)
			if err != nil {
				v.logger.Warn("skipping unreadable image", zap.String("file", name), zap.Error(err))
				return nil
			}
			perFile[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	issues := []types.Issue{}
	for _, fileIssues := range perFile {
		issues = append(issues, fileIssues...)
	}
	return issues, nil
}

func (v *Validator) unreferencedAssets(referenced map[string]string) ([]string, error) {
	exts := make([]string, 0, len(imageExtensions))
	for ext := range imageExtensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)

	pattern := sourcefs.Clean(v.opts.PublicDir) + "/**/*.{" + strings.Join(exts, ",") + "}"
	assets, err := v.fs.Glob([]string{pattern}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate asset tree: %w", err)
	}

	var backlog []string
	for _, asset := range assets {
		if _, ok := referenced[asset]; !ok {
			backlog = append(backlog, asset)
		}
	}
	return backlog, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
