package linkgraph

import (
	"sort"
	"strings"

	"github.com/jonathan/sitecheck/internal/types"
)

// Graph is a directed graph over a fixed route set. Parallel edges count once.
type Graph struct {
	routes   []string
	incoming map[string]map[string]bool
	outgoing map[string]map[string]bool
}

// Build creates a graph over routes. Edges touching unknown routes and self loops are
// ignored.
func Build(routes []string, edges []types.LinkEdge) *Graph {
	g := &Graph{
		routes:   uniqueSorted(routes),
		incoming: make(map[string]map[string]bool, len(routes)),
		outgoing: make(map[string]map[string]bool, len(routes)),
	}
	for _, route := range g.routes {
		g.incoming[route] = map[string]bool{}
		g.outgoing[route] = map[string]bool{}
	}
	for _, edge := range edges {
		if edge.From == edge.To {
			continue
		}
		in, okTo := g.incoming[edge.To]
		out, okFrom := g.outgoing[edge.From]
		if !okTo || !okFrom {
			continue
		}
		in[edge.From] = true
		out[edge.To] = true
	}
	return g
}

// Routes returns the sorted route set.
func (g *Graph) Routes() []string {
	return append([]string(nil), g.routes...)
}

// Node returns the edge counts of route. Unknown routes report zero counts.
func (g *Graph) Node(route string) types.LinkGraphNode {
	return types.LinkGraphNode{
		Route:         route,
		IncomingCount: len(g.incoming[route]),
		OutgoingCount: len(g.outgoing[route]),
	}
}

// Nodes returns every node, sorted by route.
func (g *Graph) Nodes() []types.LinkGraphNode {
	nodes := make([]types.LinkGraphNode, 0, len(g.routes))
	for _, route := range g.routes {
		nodes = append(nodes, g.Node(route))
	}
	return nodes
}

// FindOrphanPages returns routes with no incoming edges, excluding the root page and
// dynamic routes.
func (g *Graph) FindOrphanPages() []string {
	return g.filter(func(node types.LinkGraphNode) bool {
		return node.IncomingCount == 0 && node.Route != "/" && !IsDynamicRoute(node.Route)
	})
}

// FindWeakPages returns routes with exactly one incoming edge, excluding dynamic routes.
func (g *Graph) FindWeakPages() []string {
	return g.filter(func(node types.LinkGraphNode) bool {
		return node.IncomingCount == 1 && !IsDynamicRoute(node.Route)
	})
}

// FindDeadEndPages returns routes with no outgoing edges. Routes for which terminal
// returns true are exempt; terminal may be nil.
func (g *Graph) FindDeadEndPages(terminal func(route string) bool) []string {
	return g.filter(func(node types.LinkGraphNode) bool {
		if terminal != nil && terminal(node.Route) {
			return false
		}
		return node.OutgoingCount == 0
	})
}

func (g *Graph) filter(keep func(types.LinkGraphNode) bool) []string {
	out := []string{}
	for _, node := range g.Nodes() {
		if keep(node) {
			out = append(out, node.Route)
		}
	}
	sort.Strings(out)
	return out
}

// IsDynamicRoute reports whether a route has a bracketed or catch-all segment.
func IsDynamicRoute(route string) bool {
	for _, segment := range strings.Split(route, "/") {
		if strings.HasPrefix(segment, "[") || segment == "*" {
			return true
		}
	}
	return false
}
