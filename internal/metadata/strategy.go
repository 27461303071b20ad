package metadata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Declared holds the metadata values a source declares. A nil field was not declared
// or could not be resolved.
type Declared struct {
	Canonical *string `json:"canonical,omitempty"`
	// CanonicalExpr is the raw expression of a canonical that is declared but cannot
	// be resolved statically. Canonical is nil when it is set.
	CanonicalExpr string  `json:"canonicalExpr,omitempty"`
	OGURL         *string `json:"ogUrl,omitempty"`
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	// NoIndex is set by robots index:false or a noindex robots meta tag.
	NoIndex bool `json:"noIndex,omitempty"`
}

// merge fills nil fields of d from other.
func (d *Declared) merge(other Declared) {
	if d.Canonical == nil {
		d.Canonical = other.Canonical
	}
	if d.CanonicalExpr == "" {
		d.CanonicalExpr = other.CanonicalExpr
	}
	if d.OGURL == nil {
		d.OGURL = other.OGURL
	}
	if d.Title == nil {
		d.Title = other.Title
	}
	if d.Description == nil {
		d.Description = other.Description
	}
	d.NoIndex = d.NoIndex || other.NoIndex
}

// Source is one file's text prepared for extraction.
type Source struct {
	Path string
	Text string
	res  *resolver
}

// NewSource prepares text for extraction. origin joins path arguments of helper calls.
func NewSource(path, text, origin string) Source {
	return Source{Path: path, Text: text, res: newResolver(text, origin)}
}

// Strategy extracts declared metadata using one declaration convention.
type Strategy interface {
	Name() string
	Extract(src Source) Declared
}

// DefaultStrategies returns the strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{StructuredStrategy{}, RawTagStrategy{}}
}

// Extract applies strategies in order; the first non-nil value per field wins.
func Extract(src Source, strategies []Strategy) Declared {
	var declared Declared
	for _, strategy := range strategies {
		declared.merge(strategy.Extract(src))
	}
	return declared
}

var (
	metadataExport  = regexp.MustCompile(`export\s+const\s+metadata\s*(?::\s*[\w.]+)?\s*=\s*`)
	generateDecl    = regexp.MustCompile(`function\s+generateMetadata\b|\bgenerateMetadata\s*(?::\s*[\w.<>]+)?\s*=\s*(?:async\b)?`)
	returnStatement = regexp.MustCompile(`\breturn\s*\(?\s*\{`)
)

// StructuredStrategy reads the exported metadata object or the object returned by
// generateMetadata: alternates.canonical, openGraph.url, title, description and robots.
type StructuredStrategy struct{}

// Name identifies the strategy in logs.
func (StructuredStrategy) Name() string { return "structured" }

// Extract implements Strategy.
func (StructuredStrategy) Extract(src Source) Declared {
	var declared Declared
	for _, body := range metadataObjects(src.Text) {
		declared.merge(fromObject(objectProps(body), src.res))
	}
	return declared
}

// metadataObjects returns the bodies of the metadata object literals declared in text.
func metadataObjects(text string) []string {
	var bodies []string

	if loc := metadataExport.FindStringIndex(text); loc != nil {
		if open := loc[1]; open < len(text) && text[open] == '{' {
			if body, ok := blockAt(text, open); ok {
				bodies = append(bodies, body)
			}
		}
	}

	if loc := generateDecl.FindStringIndex(text); loc != nil {
		if body, ok := returnedObject(text[loc[1]:]); ok {
			bodies = append(bodies, body)
		}
	}
	return bodies
}

// returnedObject finds the object literal returned by a function, given text starting
// at its parameter list. Arrow functions may return the object directly: => ({ ... }).
func returnedObject(rest string) (string, bool) {
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return "", false
	}
	end := closing(rest, open)
	if end < 0 {
		return "", false
	}
	rest = rest[end+1:]

	arrow := false
	if i := strings.Index(rest, "=>"); i >= 0 && !strings.Contains(rest[:i], "{") {
		rest = rest[i+2:]
		arrow = true
	}
	brace := strings.IndexByte(rest, '{')
	if brace < 0 {
		return "", false
	}
	if arrow && strings.TrimSpace(rest[:brace]) == "(" {
		return blockAt(rest, brace)
	}

	fnBody, ok := blockAt(rest, brace)
	if !ok {
		return "", false
	}
	ret := returnStatement.FindStringIndex(fnBody)
	if ret == nil {
		return "", false
	}
	return blockAt(fnBody, ret[1]-1)
}

func fromObject(props []prop, res *resolver) Declared {
	var declared Declared

	if alternates, ok := nestedProps(props, "alternates"); ok {
		declared.Canonical, declared.CanonicalExpr = resolveDeclared(alternates, "canonical", res)
	}
	if og, ok := nestedProps(props, "openGraph"); ok {
		declared.OGURL = resolveProp(og, "url", res)
	}

	// title may be a string or { default, absolute, template }.
	if titleProps, ok := nestedProps(props, "title"); ok {
		declared.Title = resolveProp(titleProps, "absolute", res)
		if declared.Title == nil {
			declared.Title = resolveProp(titleProps, "default", res)
		}
	} else {
		declared.Title = resolveProp(props, "title", res)
	}
	declared.Description = resolveProp(props, "description", res)

	if robots, ok := nestedProps(props, "robots"); ok {
		index, _ := lookup(robots, "index")
		noindex, _ := lookup(robots, "noindex")
		declared.NoIndex = strings.TrimSpace(index) == "false" || strings.TrimSpace(noindex) == "true"
	} else if value := resolveProp(props, "robots", res); value != nil {
		declared.NoIndex = containsNoIndex(*value)
	}
	return declared
}

func resolveProp(props []prop, key string, res *resolver) *string {
	expr, ok := lookup(props, key)
	if !ok {
		return nil
	}
	value, ok := res.resolve(expr)
	if !ok {
		return nil
	}
	return &value
}

// resolveDeclared is resolveProp that also returns the expression of a property that is
// present but does not resolve.
func resolveDeclared(props []prop, key string, res *resolver) (*string, string) {
	expr, ok := lookup(props, key)
	if !ok {
		return nil, ""
	}
	value, ok := res.resolve(expr)
	if !ok {
		return nil, strings.TrimSpace(expr)
	}
	return &value, ""
}

func containsNoIndex(robots string) bool {
	for _, directive := range strings.Split(robots, ",") {
		switch strings.ToLower(strings.TrimSpace(directive)) {
		case "noindex", "none":
			return true
		}
	}
	return false
}

// RawTagStrategy reads <link rel="canonical">, <meta property="og:url">, <title>,
// <meta name="description"> and <meta name="robots"> tags embedded in the source.
type RawTagStrategy struct{}

// Name identifies the strategy in logs.
func (RawTagStrategy) Name() string { return "raw-tag" }

// Extract implements Strategy.
func (RawTagStrategy) Extract(src Source) Declared {
	var declared Declared
	if !strings.Contains(src.Text, "<") {
		return declared
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src.Text))
	if err != nil {
		return declared
	}

	attr := func(selector, name string) *string {
		value, ok := doc.Find(selector).First().Attr(name)
		if !ok {
			return nil
		}
		return resolveAttr(value, src.res)
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		declared.Canonical = resolveAttr(href, src.res)
		if declared.Canonical == nil {
			declared.CanonicalExpr = strings.TrimSpace(href)
		}
	}
	declared.OGURL = attr(`meta[property="og:url"]`, "content")
	declared.Description = attr(`meta[name="description"]`, "content")
	if title := doc.Find("title").First(); title.Length() > 0 {
		declared.Title = resolveAttr(title.Text(), src.res)
	}
	if robots := attr(`meta[name="robots"]`, "content"); robots != nil {
		declared.NoIndex = containsNoIndex(*robots)
	}
	return declared
}

// resolveAttr treats {expression} attribute values as expressions and the rest as text.
func resolveAttr(value string, res *resolver) *string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "{") {
		resolved, ok := res.resolve(value)
		if !ok {
			return nil
		}
		return &resolved
	}
	return &value
}
