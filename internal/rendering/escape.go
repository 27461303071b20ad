package rendering

import "strings"

// EscapeMarkdown escapes characters that change Markdown inline formatting or break a
// table cell. Line breaks collapse to spaces.
// Special characters: \ ` * _ [ ] < > |
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '|':
			result.WriteRune('\\')
			result.WriteRune(r)
		case '\r':
		case '\n':
			result.WriteRune(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}
