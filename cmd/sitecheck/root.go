package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/sitecheck/internal/config"
	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/inventory"
	"github.com/jonathan/sitecheck/internal/linkgraph"
	"github.com/jonathan/sitecheck/internal/logging"
	"github.com/jonathan/sitecheck/internal/metadata"
	"github.com/jonathan/sitecheck/internal/sourcefs"
	"github.com/jonathan/sitecheck/internal/validation"
)

var (
	rootConfigPath string
	rootDir        string
	rootOrigin     string
	rootLogLevel   string
	rootLogFormat  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to config file (default: ./sitecheck.yaml if present)")
	flags.StringVarP(&rootDir, "root", "r", "", "Site source root (default: .)")
	flags.StringVar(&rootOrigin, "origin", "", "Site origin used for canonical checks, e.g. https://example.com")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&rootLogFormat, "log-format", "", "Log format: json, console")
}

// loadConfig merges explicitly set persistent flags over file and environment values.
func loadConfig(cmd *cobra.Command, extra map[string]any) (*config.Config, error) {
	overrides := map[string]any{}
	flagKeys := map[string]string{
		"root":       "root",
		"origin":     "origin",
		"log-level":  "log.level",
		"log-format": "log.format",
	}
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	for key, value := range extra {
		overrides[key] = value
	}
	return config.Load(rootConfigPath, overrides)
}

// site holds the analyzers of one source tree.
type site struct {
	cfg      *config.Config
	logger   *zap.Logger
	tree     *sourcefs.Tree
	pages    *inventory.Scanner
	metadata *metadata.Validator
	rules    *linkgraph.Rules
}

func newSite(cfg *config.Config, logger *zap.Logger) (*site, error) {
	tree, err := sourcefs.NewOSTree(cfg.Root, cfg.CacheEntries)
	if err != nil {
		return nil, err
	}
	rules, err := linkgraph.LoadRules(cfg.LinkRules)
	if err != nil {
		return nil, err
	}
	return &site{
		cfg:    cfg,
		logger: logger,
		tree:   tree,
		pages: inventory.NewScanner(tree, inventory.Options{
			Roots:   cfg.PageRoots,
			Exclude: cfg.Exclude,
			Logger:  logger.Named("inventory"),
		}),
		metadata: metadata.NewValidator(tree, metadata.Options{
			Origin:         strings.TrimSuffix(cfg.Origin, "/"),
			DynamicHelpers: cfg.DynamicHelpers,
			Concurrency:    cfg.Concurrency,
			Logger:         logger.Named("metadata"),
		}),
		rules: rules,
	}, nil
}

// openSite loads configuration and builds the logger and analyzers for a command.
func openSite(cmd *cobra.Command, extra map[string]any) (*site, error) {
	cfg, err := loadConfig(cmd, extra)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	s, err := newSite(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return s, nil
}

func (s *site) images(mode images.Mode, backlog bool) *images.Validator {
	return images.NewValidator(s.tree, images.Options{
		Mode:           mode,
		IncludeBacklog: backlog,
		SkipFormat:     s.cfg.Images.SkipFormat,
		SourcePatterns: s.cfg.Images.SourcePatterns,
		Ignore:         s.cfg.Images.Ignore,
		PublicDir:      s.cfg.PublicDir,
		Thresholds:     s.cfg.Thresholds(),
		Concurrency:    s.cfg.Concurrency,
		Logger:         s.logger.Named("images"),
	})
}

func (s *site) validator() *validation.Validator {
	return validation.NewValidator(validation.Options{
		Pages:     s.pages,
		Metadata:  s.metadata,
		Images:    s.images(images.ModeRuntime, false),
		LinkRules: s.rules,
		Logger:    s.logger.Named("validation"),
	})
}

func (s *site) close() {
	_ = s.logger.Sync()
}

// skipValidation reports whether SKIP_VALIDATION=true bypasses the run.
func skipValidation() bool {
	if strings.EqualFold(os.Getenv("SKIP_VALIDATION"), "true") {
		_, _ = fmt.Fprintln(os.Stdout, "Validation skipped (SKIP_VALIDATION=true)")
		return true
	}
	return false
}
