package metadata

import "strings"

// prop is one top-level property of an object literal.
type prop struct {
	key   string
	value string
}

// skipNonCode advances past a quoted string or comment starting at i and returns the
// index of its last byte. It returns i unchanged when text[i] starts neither.
func skipNonCode(text string, i int) int {
	switch c := text[i]; {
	case c == '"' || c == '\'' || c == '`':
		for j := i + 1; j < len(text); j++ {
			if text[j] == '\\' {
				j++
				continue
			}
			if text[j] == c {
				return j
			}
		}
		return len(text) - 1
	case c == '/' && i+1 < len(text) && text[i+1] == '/':
		if end := strings.IndexByte(text[i:], '\n'); end >= 0 {
			return i + end
		}
		return len(text) - 1
	case c == '/' && i+1 < len(text) && text[i+1] == '*':
		if end := strings.Index(text[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 1
		}
		return len(text) - 1
	}
	return i
}

// closing returns the index of the bracket that closes the one at open, or -1.
// Parentheses, brackets and braces share one depth counter.
func closing(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		if next := skipNonCode(text, i); next != i {
			i = next
			continue
		}
		switch text[i] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// blockAt returns the contents between the bracket at open and its match.
func blockAt(text string, open int) (string, bool) {
	end := closing(text, open)
	if end < 0 {
		return "", false
	}
	return text[open+1 : end], true
}

// splitTopLevel splits text at sep characters that are outside brackets, strings and comments.
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		if next := skipNonCode(text, i); next != i {
			i = next
			continue
		}
		switch text[i] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}

// indexTopLevel returns the first index of sep outside brackets, strings and comments.
func indexTopLevel(text string, sep byte) int {
	depth := 0
	for i := 0; i < len(text); i++ {
		if next := skipNonCode(text, i); next != i {
			i = next
			continue
		}
		switch text[i] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// objectProps parses the top-level properties of an object literal body. Spreads and
// methods are skipped; shorthand properties map to their own name.
func objectProps(body string) []prop {
	var props []prop
	for _, part := range splitTopLevel(body, ',') {
		part = stripComments(part)
		if part == "" || strings.HasPrefix(part, "...") {
			continue
		}
		colon := indexTopLevel(part, ':')
		if colon < 0 {
			if isIdentifier(part) {
				props = append(props, prop{key: part, value: part})
			}
			continue
		}
		key := strings.Trim(strings.TrimSpace(part[:colon]), `"'`)
		props = append(props, prop{key: key, value: strings.TrimSpace(part[colon+1:])})
	}
	return props
}

// lookup returns the value of the first property named key.
func lookup(props []prop, key string) (string, bool) {
	for _, p := range props {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// nestedProps parses the object literal value of key, if it is one.
func nestedProps(props []prop, key string) ([]prop, bool) {
	value, ok := lookup(props, key)
	if !ok || !strings.HasPrefix(value, "{") {
		return nil, false
	}
	body, ok := blockAt(value, 0)
	if !ok {
		return nil, false
	}
	return objectProps(body), true
}

// stripComments removes leading comments and surrounding space from a property.
func stripComments(part string) string {
	part = strings.TrimSpace(part)
	for strings.HasPrefix(part, "//") || strings.HasPrefix(part, "/*") {
		end := skipNonCode(part, 0)
		part = strings.TrimSpace(part[end+1:])
	}
	return part
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
