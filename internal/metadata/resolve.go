package metadata

import (
	"regexp"
	"strings"
)

var (
	// constDecl matches a same-file constant initialized with a plain string.
	constDecl = regexp.MustCompile("(?m)\\b(?:const|let|var)\\s+([A-Za-z_$][\\w$]*)\\s*(?::[^=\\n]+)?=\\s*(?:'([^'\\\\\\n]*)'|\"([^\"\\\\\\n]*)\"|`([^`]*)`)")
	interpolation = regexp.MustCompile(`\$\{([^}]*)\}`)
	callExpr      = regexp.MustCompile(`(?s)^([A-Za-z_$][\w$.]*)\s*\((.*)\)$`)
)

// constants maps same-file constant names to their string values.
type constants map[string]string

// collectConstants finds string constants declared anywhere in text. Template constants
// with interpolations are skipped: resolving them would be a second hop.
func collectConstants(text string) constants {
	consts := make(constants)
	for _, m := range constDecl.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if _, seen := consts[name]; seen {
			continue
		}
		switch {
		case m[4] >= 0:
			consts[name] = text[m[4]:m[5]]
		case m[6] >= 0:
			consts[name] = text[m[6]:m[7]]
		case m[8] >= 0:
			if value := text[m[8]:m[9]]; !strings.Contains(value, "${") {
				consts[name] = value
			}
		}
	}
	return consts
}

// resolver turns metadata value expressions into strings with single-hop resolution.
type resolver struct {
	consts constants
	origin string
}

func newResolver(text, origin string) *resolver {
	return &resolver{consts: collectConstants(text), origin: strings.TrimRight(origin, "/")}
}

// resolve returns the string value of expr and whether it could be determined. It
// accepts a string literal, a template literal interpolating only same-file constants,
// a bare constant identifier, or a call whose first argument is a literal. A literal
// path argument to a call is joined to the site origin.
func (r *resolver) resolve(expr string) (string, bool) {
	expr = cleanExpression(expr)
	if expr == "" {
		return "", false
	}

	if value, ok := r.template(expr); ok {
		return value, true
	}
	if isIdentifier(expr) {
		value, ok := r.consts[expr]
		return value, ok
	}
	if m := callExpr.FindStringSubmatch(expr); m != nil {
		args := splitTopLevel(m[2], ',')
		value, ok := literal(cleanExpression(args[0]))
		if !ok {
			return "", false
		}
		if strings.HasPrefix(value, "/") && r.origin != "" {
			return r.origin + value, true
		}
		return value, true
	}
	return "", false
}

// template resolves string and template literals, substituting constant interpolations.
func (r *resolver) template(expr string) (string, bool) {
	if value, ok := literal(expr); ok {
		return value, true
	}
	if len(expr) < 2 || expr[0] != '`' || expr[len(expr)-1] != '`' {
		return "", false
	}

	resolved := true
	value := interpolation.ReplaceAllStringFunc(expr[1:len(expr)-1], func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-1])
		constant, ok := r.consts[name]
		if !ok {
			resolved = false
		}
		return constant
	})
	return value, resolved
}

// literal returns the contents of a quoted string or an interpolation-free template.
func literal(expr string) (string, bool) {
	if len(expr) < 2 {
		return "", false
	}
	quote := expr[0]
	if quote != '"' && quote != '\'' && quote != '`' {
		return "", false
	}
	if expr[len(expr)-1] != quote {
		return "", false
	}
	inner := expr[1 : len(expr)-1]
	if strings.IndexByte(inner, quote) >= 0 && !strings.Contains(inner, `\`+string(quote)) {
		return "", false
	}
	if quote == '`' && strings.Contains(inner, "${") {
		return "", false
	}
	return strings.ReplaceAll(inner, `\`+string(quote), string(quote)), true
}

// cleanExpression drops TypeScript assertions, JSX braces and surrounding space.
func cleanExpression(expr string) string {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimSuffix(expr, ",")
	if strings.HasPrefix(expr, "{") && strings.HasSuffix(expr, "}") {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	expr = strings.TrimSpace(strings.TrimSuffix(expr, "as const"))
	for strings.HasPrefix(expr, "(") && closing(expr, 0) == len(expr)-1 {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	return expr
}
