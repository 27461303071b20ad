// Package linkgraph synthesizes an approximate internal link graph from the known route
// list and classifies pages by their link counts.
//
// Edges are not parsed from page markup. They come from a navigation rule set kept as
// data (rules.yaml) so the assumptions can be audited or replaced by a real edge source
// without touching the classification code.
package linkgraph

import "fmt"

// RulesError represents a failure to load or validate link rules
type RulesError struct {
	Message string
	Cause   error
}

func (e *RulesError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link rules error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link rules error: %s", e.Message)
}

func (e *RulesError) Unwrap() error {
	return e.Cause
}
