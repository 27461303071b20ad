package linkgraph

import (
	_ "embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Group is a set of related routes, selected by path prefix or listed explicitly.
type Group struct {
	Name     string   `yaml:"name"`
	Prefix   string   `yaml:"prefix,omitempty"`
	Routes   []string `yaml:"routes,omitempty"`
	Hub      string   `yaml:"hub,omitempty"`
	Siblings bool     `yaml:"siblings,omitempty"`
}

// Contains reports whether route belongs to the group. The hub is not a member.
func (g Group) Contains(route string) bool {
	if route == g.Hub {
		return false
	}
	if g.Prefix != "" && underPrefix(route, g.Prefix) {
		return true
	}
	for _, r := range g.Routes {
		if r == route {
			return true
		}
	}
	return false
}

// Rules is the navigation model used to synthesize edges.
type Rules struct {
	Hubs     []string `yaml:"hubs"`
	Groups   []Group  `yaml:"groups"`
	Terminal []string `yaml:"terminal"`
}

// IsTerminal reports whether route is, or sits under, a journey-ending route.
func (r *Rules) IsTerminal(route string) bool {
	for _, terminal := range r.Terminal {
		if underPrefix(route, terminal) {
			return true
		}
	}
	return false
}

// DefaultRules returns the embedded rule set.
func DefaultRules() *Rules {
	rules, err := ParseRules(defaultRules)
	if err != nil {
		panic(err)
	}
	return rules
}

// LoadRules reads a rules file. An empty path returns the embedded defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RulesError{Message: "failed to read rules file " + path, Cause: err}
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule set.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, &RulesError{Message: "failed to parse rules", Cause: err}
	}
	if err := rules.validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

func (r *Rules) validate() error {
	for _, hub := range r.Hubs {
		if !strings.HasPrefix(hub, "/") {
			return &RulesError{Message: "hub route must start with /: " + hub}
		}
	}
	for _, group := range r.Groups {
		if group.Name == "" {
			return &RulesError{Message: "group without a name"}
		}
		if group.Prefix == "" && len(group.Routes) == 0 {
			return &RulesError{Message: "group " + group.Name + " selects no routes"}
		}
		if group.Hub == "" && !group.Siblings {
			return &RulesError{Message: "group " + group.Name + " has neither a hub nor sibling links"}
		}
	}
	for _, terminal := range r.Terminal {
		if !strings.HasPrefix(terminal, "/") {
			return &RulesError{Message: "terminal route must start with /: " + terminal}
		}
	}
	return nil
}

// underPrefix matches on a segment boundary, so /blogroll is not under /blog.
func underPrefix(route, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}
