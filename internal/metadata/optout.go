package metadata

import (
	"regexp"
	"strings"
)

// OptOut names why a page is excluded from metadata checks.
type OptOut string

const (
	// OptOutNone means the page is checked.
	OptOutNone OptOut = ""
	// OptOutNoIndex pages declare robots noindex.
	OptOutNoIndex OptOut = "noindex"
	// OptOutDynamic pages source their metadata through a helper the extractor cannot follow.
	OptOutDynamic OptOut = "dynamic-helper"
)

var localMetadataBlock = regexp.MustCompile(`\b(?:alternates|openGraph)\s*:`)

// DetectOptOut decides whether a page's metadata is out of reach of static extraction.
// helpers are function names known to build metadata from an external source.
func DetectOptOut(text string, declared Declared, helpers []string) OptOut {
	if declared.NoIndex {
		return OptOutNoIndex
	}

	for _, helper := range helpers {
		if helper != "" && callsFunction(text, helper) {
			return OptOutDynamic
		}
	}

	// An exported metadata value that is not an object literal comes from elsewhere.
	if loc := metadataExport.FindStringIndex(text); loc != nil {
		if rest := strings.TrimSpace(text[loc[1]:]); rest != "" && rest[0] != '{' {
			return OptOutDynamic
		}
	}

	if generateDecl.MatchString(text) && !localMetadataBlock.MatchString(text) {
		return OptOutDynamic
	}
	return OptOutNone
}

func callsFunction(text, name string) bool {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
	return pattern.MatchString(text)
}
