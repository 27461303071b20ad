package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/sitecheck/internal/db"
	"github.com/jonathan/sitecheck/internal/metrics"
	"github.com/jonathan/sitecheck/internal/schemas"
	"github.com/jonathan/sitecheck/internal/types"
)

// writeFile writes data to path, creating the parent directory.
func writeFile(path string, data []byte) error {
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals v to path ("-" for stdout).
func writeJSON(w io.Writer, path string, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if path == "-" {
		_, err := fmt.Fprintln(w, string(jsonBytes))
		return err
	}
	return writeFile(path, jsonBytes)
}

// checkResultSchema validates a result against the published schema (non-fatal).
func checkResultSchema(logger *zap.Logger, result *types.ValidationResult) {
	if err := schemas.ValidateResult(result); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			logger.Warn("result does not validate against schema", zap.Error(err))
		} else {
			logger.Warn("could not validate result against schema", zap.Error(err))
		}
	}
}

// writeMetrics records the outcome of a run into a textfile. A nil result is a fatal run.
func writeMetrics(logger *zap.Logger, path string, result *types.ValidationResult) {
	if path == "" {
		return
	}
	m := metrics.New()
	if result == nil {
		m.RecordFatal()
	} else {
		m.Record(result)
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("failed to write metrics", zap.String("path", path), zap.Error(err))
	}
}

// saveHistory stores the run when a database is configured. Failures are logged only.
func saveHistory(ctx context.Context, logger *zap.Logger, databaseURL, kind, root string, result *types.ValidationResult) {
	if databaseURL == "" {
		return
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database, err := db.Connect(connectCtx, databaseURL)
	if err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
		return
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
		return
	}
	runID, err := database.SaveRun(ctx, kind, root, result)
	if err != nil {
		logger.Warn("failed to save run history", zap.Error(err))
		return
	}
	logger.Info("run saved", zap.String("run_id", runID.String()))
}
