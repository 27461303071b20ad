package validation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/inventory"
	"github.com/jonathan/sitecheck/internal/linkgraph"
	"github.com/jonathan/sitecheck/internal/types"
)

// Stage names one analyzer step of a run.
type Stage string

const (
	StagePages      Stage = "pages"
	StageMeta       Stage = "meta"
	StageLinks      Stage = "links"
	StageImages     Stage = "images"
	StageCanonicals Stage = "canonicals"
)

// PageScanner enumerates the pages of a site.
type PageScanner interface {
	Scan(ctx context.Context) ([]types.PageRecord, error)
}

// MetadataChecker validates per-page metadata.
type MetadataChecker interface {
	CheckMeta(ctx context.Context, pages []types.PageRecord) ([]types.Issue, error)
	CheckCanonicals(ctx context.Context, pages []types.PageRecord) ([]types.Issue, error)
}

// ImageChecker validates image references and files.
type ImageChecker interface {
	Run(ctx context.Context) (*images.Report, error)
}

// Options wires the analyzers of a Validator.
type Options struct {
	Pages    PageScanner
	Metadata MetadataChecker
	Images   ImageChecker
	// LinkRules drives edge synthesis; nil uses the embedded defaults.
	LinkRules *linkgraph.Rules
	Logger    *zap.Logger
	// Now stamps results; nil uses time.Now.
	Now func() time.Time
}

// Validator runs the analyzers of one site in a fixed order.
type Validator struct {
	pages     PageScanner
	metadata  MetadataChecker
	images    ImageChecker
	linkRules *linkgraph.Rules
	logger    *zap.Logger
	now       func() time.Time
}

// NewValidator creates a Validator. Pages and Metadata are required; a nil Images
// checker skips the image stage.
func NewValidator(opts Options) *Validator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rules := opts.LinkRules
	if rules == nil {
		rules = linkgraph.DefaultRules()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Validator{
		pages:     opts.Pages,
		metadata:  opts.Metadata,
		images:    opts.Images,
		linkRules: rules,
		logger:    logger,
		now:       now,
	}
}

// Run executes page scan, meta checks, link analysis over indexable pages, image
// validation and canonical checks, in that order. A page scan or canonical failure
// returns a *FatalError; failures of the other stages are logged and contribute no
// findings.
func (v *Validator) Run(ctx context.Context, opts RunOptions) (*types.ValidationResult, error) {
	runID := uuid.NewString()
	logger := v.logger.With(zap.String("run_id", runID))

	pages, err := v.scanPages(ctx, logger)
	if err != nil {
		return nil, err
	}
	indexable := inventory.Indexable(pages)

	issues := ComplianceIssues(pages)

	metaIssues, err := v.metadata.CheckMeta(ctx, indexable)
	issues = append(issues, v.tolerate(ctx, logger, StageMeta, metaIssues, err)...)

	analysis := linkgraph.Analyze(inventory.Routes(indexable), v.linkRules)
	linkIssues := analysis.Issues()
	logStage(logger, StageLinks, len(linkIssues))
	issues = append(issues, linkIssues...)

	imageIssues, imageReferences := v.runImages(ctx, logger)
	issues = append(issues, imageIssues...)

	canonicalIssues, err := v.metadata.CheckCanonicals(ctx, indexable)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, v.fatal(logger, StageCanonicals, err)
	}
	logStage(logger, StageCanonicals, len(canonicalIssues))
	issues = append(issues, canonicalIssues...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs, warnings := types.PartitionIssues(issues)
	verdict := opts.Policy().Evaluate(Findings{Source: SourceCompliance, Issues: issues})
	result := &types.ValidationResult{
		RunID:       runID,
		GeneratedAt: v.now().UTC(),
		Passed:      verdict.Passed,
		Errors:      errs,
		Warnings:    warnings,
		Stats:       ComputeStats(pages, issues, imageReferences),
	}
	logger.Info("validation run complete",
		zap.Bool("passed", result.Passed),
		zap.Int("errors", len(errs)),
		zap.Int("warnings", len(warnings)))
	return result, nil
}

// Canonicals scans pages and runs only the canonical checks over the indexable ones.
func (v *Validator) Canonicals(ctx context.Context) ([]types.Issue, error) {
	pages, err := v.scanPages(ctx, v.logger)
	if err != nil {
		return nil, err
	}
	issues, err := v.metadata.CheckCanonicals(ctx, inventory.Indexable(pages))
	if err != nil {
		return nil, v.fatal(v.logger, StageCanonicals, err)
	}
	logStage(v.logger, StageCanonicals, len(issues))
	return issues, nil
}

func (v *Validator) scanPages(ctx context.Context, logger *zap.Logger) ([]types.PageRecord, error) {
	pages, err := v.pages.Scan(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, v.fatal(logger, StagePages, err)
	}
	logger.Info("stage complete", zap.String("stage", string(StagePages)), zap.Int("pages", len(pages)))
	return pages, nil
}

func (v *Validator) runImages(ctx context.Context, logger *zap.Logger) ([]types.Issue, int) {
	if v.images == nil {
		return nil, 0
	}
	report, err := v.images.Run(ctx)
	if err != nil {
		return v.tolerate(ctx, logger, StageImages, nil, err), 0
	}
	logStage(logger, StageImages, len(report.Issues))
	return report.Issues, report.References
}

// tolerate downgrades a non-fatal stage failure to zero findings.
func (v *Validator) tolerate(ctx context.Context, logger *zap.Logger, stage Stage, issues []types.Issue, err error) []types.Issue {
	if err == nil {
		logStage(logger, stage, len(issues))
		return issues
	}
	if ctx.Err() != nil {
		return nil
	}
	stageErr := &StageError{Stage: stage, Message: "stage failed, continuing without its findings", Cause: err}
	logger.Warn("validation stage failed", zap.String("stage", string(stage)), zap.Error(stageErr))
	return nil
}

func (v *Validator) fatal(logger *zap.Logger, stage Stage, err error) error {
	stageErr := &StageError{Stage: stage, Fatal: true, Message: "stage failed", Cause: err}
	logger.Error("validation stage failed", zap.String("stage", string(stage)), zap.Error(stageErr))
	return &FatalError{Message: "validation run aborted", Cause: stageErr}
}

func logStage(logger *zap.Logger, stage Stage, issues int) {
	logger.Info("stage complete", zap.String("stage", string(stage)), zap.Int("issues", issues))
}

// ComplianceIssues returns site-wide critical findings: no indexable pages at all, or
// no root page.
func ComplianceIssues(pages []types.PageRecord) []types.Issue {
	issues := []types.Issue{}
	if len(inventory.Indexable(pages)) == 0 {
		issues = append(issues, types.Issue{
			Subject:  "/",
			Severity: types.SeverityCritical,
			Category: types.CategoryMeta,
			Rule:     types.RuleNoIndexablePages,
			Message:  "Site has no indexable pages",
			Fix:      "Check the page roots and the indexability rules",
			Details:  map[string]any{"totalPages": len(pages)},
		})
	}
	hasRoot := false
	for _, page := range pages {
		if page.RoutePath == "/" {
			hasRoot = true
			break
		}
	}
	if !hasRoot {
		issues = append(issues, types.Issue{
			Subject:  "/",
			Severity: types.SeverityCritical,
			Category: types.CategoryIncomingLinks,
			Rule:     types.RuleMissingRootPage,
			Message:  "Site has no root page",
			Fix:      "Add a page for the / route",
			Details:  map[string]any{"route": "/"},
		})
	}
	return issues
}
