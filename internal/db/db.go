// Package db provides PostgreSQL storage for validation run history.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/sitecheck/internal/types"
)

//go:embed schema.sql
var schema string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the history tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveRun stores a result and its issues in one transaction and returns the run ID.
// The result's RunID is reused when it is a UUID.
func (db *DB) SaveRun(ctx context.Context, kind, root string, result *types.ValidationResult) (uuid.UUID, error) {
	runID, err := uuid.Parse(result.RunID)
	if err != nil {
		runID = uuid.New()
	}

	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal stats: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO validation_runs (id, kind, root, passed, error_count, warning_count, stats, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		runID, kind, root, result.Passed, len(result.Errors), len(result.Warnings), statsJSON, result.GeneratedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	rows := issueRows(result)
	if len(rows) > 0 {
		batch := &pgx.Batch{}
		for _, row := range rows {
			var detailsJSON []byte
			if row.Issue.Details != nil {
				detailsJSON, err = json.Marshal(row.Issue.Details)
				if err != nil {
					return uuid.Nil, fmt.Errorf("failed to marshal details of %s: %w", row.Issue.Subject, err)
				}
			}
			batch.Queue(
				`INSERT INTO validation_issues (run_id, position, subject, severity, category, rule, message, fix, details)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`,
				runID, row.Position, row.Issue.Subject, string(row.Issue.Severity), string(row.Issue.Category),
				row.Issue.Rule, row.Issue.Message, row.Issue.Fix, detailsJSON,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert issues: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// issueRows numbers errors then warnings so stored order matches the result.
func issueRows(result *types.ValidationResult) []issueRow {
	rows := make([]issueRow, 0, len(result.Errors)+len(result.Warnings))
	for _, issue := range result.Errors {
		rows = append(rows, issueRow{Position: len(rows), Issue: issue})
	}
	for _, issue := range result.Warnings {
		rows = append(rows, issueRow{Position: len(rows), Issue: issue})
	}
	return rows
}

// GetRun retrieves a run by ID. It returns nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT id, kind, root, passed, error_count, warning_count, stats, generated_at, created_at
		 FROM validation_runs WHERE id = $1`,
		runID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs for root, newest first.
func (db *DB) ListRuns(ctx context.Context, root string, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, kind, root, passed, error_count, warning_count, stats, generated_at, created_at
		 FROM validation_runs
		 WHERE root = $1
		 ORDER BY generated_at DESC, created_at DESC
		 LIMIT $2`,
		root, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// ListIssues returns the stored issues of a run in their original order.
func (db *DB) ListIssues(ctx context.Context, runID uuid.UUID) ([]types.Issue, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT subject, severity, category, rule, message, COALESCE(fix, ''), details
		 FROM validation_issues
		 WHERE run_id = $1
		 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := []types.Issue{}
	for rows.Next() {
		var issue types.Issue
		var severity, category string
		var detailsJSON []byte
		if err := rows.Scan(&issue.Subject, &severity, &category, &issue.Rule, &issue.Message, &issue.Fix, &detailsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Severity = types.Severity(severity)
		issue.Category = types.Category(category)
		if detailsJSON != nil {
			if err := json.Unmarshal(detailsJSON, &issue.Details); err != nil {
				return nil, fmt.Errorf("failed to parse details: %w", err)
			}
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	var statsJSON []byte
	if err := row.Scan(&run.ID, &run.Kind, &run.Root, &run.Passed, &run.ErrorCount, &run.WarningCount,
		&statsJSON, &run.GeneratedAt, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}
	return &run, nil
}
