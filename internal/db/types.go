package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/sitecheck/internal/types"
)

// Run kinds
const (
	RunKindValidate = "validate"
	RunKindGate     = "gate"
)

// Run represents a stored validation run
type Run struct {
	ID           uuid.UUID             `json:"id"`
	Kind         string                `json:"kind"`
	Root         string                `json:"root"`
	Passed       bool                  `json:"passed"`
	ErrorCount   int                   `json:"error_count"`
	WarningCount int                   `json:"warning_count"`
	Stats        types.ValidationStats `json:"stats"`
	GeneratedAt  time.Time             `json:"generated_at"`
	CreatedAt    time.Time             `json:"created_at"`
}

// issueRow is one validation_issues row before insertion
type issueRow struct {
	Position int
	Issue    types.Issue
}
