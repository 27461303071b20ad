package images

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Reference is one image usage found in source text.
type Reference struct {
	File string
	Line int
	// Src is the literal image path. Empty when SrcDynamic is set.
	Src        string
	SrcDynamic bool
	// Alt is nil when no alt attribute is declared.
	Alt        *string
	AltDynamic bool
}

// Subject returns the file:line (src) locator used as the issue subject.
func (r Reference) Subject() string {
	src := r.Src
	if r.SrcDynamic || src == "" {
		src = "dynamic src"
	}
	return fmt.Sprintf("%s:%d (%s)", r.File, r.Line, src)
}

var (
	// tagStart finds JSX/HTML image tags; Image is the framework component.
	tagStart = regexp.MustCompile(`<(img|Image)[\s/>]`)
	// markdownImage matches ![alt](src "title") and ![alt](<src>).
	markdownImage = regexp.MustCompile(`!\[([^\]\n]*)\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
	// imageImport matches default imports of image files: import hero from './hero.jpg'
	imageImport = regexp.MustCompile(`import\s+([A-Za-z_$][\w$]*)\s+from\s+['"]([^'"]+)['"]`)
)

// ScanSource extracts image references from one source file. HTML documents go through
// the HTML tokenizer; everything else is scanned for JSX tags and, for Markdown
// flavoured files, Markdown image syntax.
func ScanSource(file, text string) []Reference {
	switch strings.ToLower(path.Ext(file)) {
	case ".html", ".htm":
		return scanHTML(file, text)
	case ".md", ".mdx":
		refs := scanTags(file, text)
		return append(refs, scanMarkdown(file, text)...)
	default:
		return scanTags(file, text)
	}
}

func scanTags(file, text string) []Reference {
	imports := importedImages(text)

	var refs []Reference
	for _, loc := range tagStart.FindAllStringIndex(text, -1) {
		start := loc[0]
		if typePosition(text, start) {
			continue
		}
		body, ok := tagBody(text, start+1)
		if !ok {
			continue
		}
		// Skip past the tag name so attribute parsing starts at the first attribute.
		nameEnd := strings.IndexAny(body, " \t\r\n/>")
		if nameEnd < 0 {
			nameEnd = len(body)
		}
		attrs, spread, ok := parseAttributes(body[nameEnd:])
		if !ok {
			continue
		}

		ref := Reference{File: file, Line: lineAt(text, start)}
		if src, found := attrs["src"]; found {
			switch {
			case !src.dynamic:
				ref.Src = src.value
			case imports[src.value] != "":
				ref.Src = imports[src.value]
			default:
				ref.SrcDynamic = true
			}
		} else {
			ref.SrcDynamic = true
		}

		if alt, found := attrs["alt"]; found {
			if alt.dynamic {
				ref.AltDynamic = true
			} else {
				value := alt.value
				ref.Alt = &value
			}
		} else if spread {
			// Props spread into the tag may carry the alt.
			ref.AltDynamic = true
		}
		refs = append(refs, ref)
	}
	return refs
}

// tagBody returns the text between '<' and the matching '>' of a tag starting at i,
// ignoring '>' inside quotes and braces.
func tagBody(text string, i int) (string, bool) {
	depth := 0
	var quote byte
	for j := i; j < len(text); j++ {
		c := text[j]
		switch {
		case quote != 0:
			if c == '\\' {
				j++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case c == '>' && depth == 0:
			return text[i:j], true
		}
	}
	return "", false
}

type attrValue struct {
	value   string
	dynamic bool
}

// typePosition reports whether the '<' at i directly follows an identifier or a closing
// bracket, as in useState<Image | null>(null) or Array<Image>, and so opens a type
// argument list rather than a tag.
func typePosition(text string, i int) bool {
	if i == 0 {
		return false
	}
	c := text[i-1]
	return isIdentByte(c) || c == ')' || c == ']'
}

// parseAttributes reads name=value pairs from a tag body. Values in braces are
// literal only when they hold a single plain string. The second return reports a
// {...spread} attribute; the third is false when the body is not an attribute list.
func parseAttributes(body string) (map[string]attrValue, bool, bool) {
	attrs := make(map[string]attrValue)
	spread := false
	i := 0
	for i < len(body) {
		c := body[i]
		if isSpace(c) || c == '/' {
			i++
			continue
		}

		if c == '{' {
			end := matchBrace(body, i)
			if strings.HasPrefix(strings.TrimSpace(body[i+1:end]), "...") {
				spread = true
			}
			i = end + 1
			continue
		}

		nameStart := i
		for i < len(body) && !isSpace(body[i]) && body[i] != '=' && body[i] != '/' && body[i] != '{' {
			i++
		}
		name := body[nameStart:i]
		if name != "" && !isAttributeName(name) {
			return nil, false, false
		}
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) || body[i] != '=' {
			// Boolean attribute.
			if name != "" {
				attrs[name] = attrValue{value: "", dynamic: false}
			}
			continue
		}
		i++
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) {
			break
		}

		switch body[i] {
		case '"', '\'':
			quote := body[i]
			end := strings.IndexByte(body[i+1:], quote)
			if end < 0 {
				end = len(body) - i - 1
			}
			attrs[name] = attrValue{value: body[i+1 : i+1+end]}
			i += end + 2
		case '{':
			end := matchBrace(body, i)
			attrs[name] = expressionValue(body[i+1 : end])
			i = end + 1
		default:
			valueStart := i
			for i < len(body) && !isSpace(body[i]) {
				i++
			}
			attrs[name] = attrValue{value: body[valueStart:i]}
		}
	}
	return attrs, spread, true
}

// expressionValue resolves {"x"}, {'x'} and {`x`} without interpolation to a literal.
func expressionValue(expr string) attrValue {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 2 {
		first, last := expr[0], expr[len(expr)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			inner := expr[1 : len(expr)-1]
			if !strings.ContainsRune(inner, rune(first)) && !strings.Contains(inner, "${") {
				return attrValue{value: inner}
			}
		}
	}
	return attrValue{value: expr, dynamic: true}
}

func matchBrace(body string, open int) int {
	depth := 0
	var quote byte
	for j := open; j < len(body); j++ {
		c := body[j]
		switch {
		case quote != 0:
			if c == '\\' {
				j++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	// Unbalanced: the expression runs to the end of the tag.
	return len(body)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isAttributeName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isIdentByte(c) && c != '$' || c == ':' || (i > 0 && (c == '-' || c == '.')) {
			continue
		}
		return false
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func importedImages(text string) map[string]string {
	imports := make(map[string]string)
	for _, m := range imageImport.FindAllStringSubmatch(text, -1) {
		if isImagePath(m[2]) {
			imports[m[1]] = m[2]
		}
	}
	return imports
}

func scanMarkdown(file, text string) []Reference {
	var refs []Reference
	for _, m := range markdownImage.FindAllStringSubmatchIndex(text, -1) {
		alt := text[m[2]:m[3]]
		refs = append(refs, Reference{
			File: file,
			Line: lineAt(text, m[0]),
			Src:  text[m[4]:m[5]],
			Alt:  &alt,
		})
	}
	return refs
}

func scanHTML(file, text string) []Reference {
	var refs []Reference
	z := html.NewTokenizer(strings.NewReader(text))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return refs
			}
			break
		}
		raw := z.Raw()
		line := lineAt(text, offset)
		offset += len(raw)

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if !bytes.Equal(name, []byte("img")) {
			continue
		}

		ref := Reference{File: file, Line: line, SrcDynamic: true}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			switch string(key) {
			case "src":
				ref.Src = string(val)
				ref.SrcDynamic = false
			case "alt":
				alt := string(val)
				ref.Alt = &alt
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

// lineAt returns the 1-based line of byte offset i.
func lineAt(text string, i int) int {
	if i > len(text) {
		i = len(text)
	}
	return strings.Count(text[:i], "\n") + 1
}
