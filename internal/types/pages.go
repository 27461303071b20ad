// Package types provides type definitions for structured data used throughout the sitecheck system.
package types

// PageType classifies a route by the shape of its bracketed segments.
type PageType string

const (
	PageTypeStatic   PageType = "static"
	PageTypeDynamic  PageType = "dynamic"
	PageTypeCatchAll PageType = "catch-all"
)

// NonIndexableReason names the rule that made a page non-indexable.
type NonIndexableReason string

const (
	ReasonDynamicRoute  NonIndexableReason = "dynamic-route"
	ReasonCatchAllRoute NonIndexableReason = "catch-all-route"
	ReasonAdminRoute    NonIndexableReason = "admin-route"
	ReasonPortalRoute   NonIndexableReason = "portal-route"
	ReasonAuthRoute     NonIndexableReason = "auth-route"
	ReasonTestRoute     NonIndexableReason = "test-route"
)

// PageRecord describes one scanned page source file. Records are rebuilt on every scan.
type PageRecord struct {
	SourcePath  string             `json:"sourcePath"`
	RoutePath   string             `json:"routePath"`
	PageType    PageType           `json:"pageType"`
	IsIndexable bool               `json:"isIndexable"`
	Reason      NonIndexableReason `json:"reason,omitempty"`
}

// PageStats summarizes a page inventory.
// Total always equals Indexable+NonIndexable and Static+Dynamic+CatchAll.
type PageStats struct {
	Total        int `json:"total"`
	Indexable    int `json:"indexable"`
	NonIndexable int `json:"nonIndexable"`
	Static       int `json:"static"`
	Dynamic      int `json:"dynamic"`
	CatchAll     int `json:"catchAll"`
}

// LinkEdge is a directed, synthesized link between two routes.
type LinkEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// LinkGraphNode carries the edge counts of a route at analysis time.
type LinkGraphNode struct {
	Route         string `json:"route"`
	IncomingCount int    `json:"incomingCount"`
	OutgoingCount int    `json:"outgoingCount"`
}
