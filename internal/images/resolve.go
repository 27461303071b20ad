package images

import (
	"path"
	"regexp"
	"strings"

	"github.com/jonathan/sitecheck/internal/sourcefs"
)

// imageExtensions are the file types treated as images.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
	".ico":  true,
	".bmp":  true,
}

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// Resolution is the outcome of mapping a reference to a file in the tree.
type Resolution int

const (
	// Resolved means Path names an existing image file.
	Resolved Resolution = iota
	// External references point outside the tree (http:, //cdn, data:, blob:).
	External
	// Unsupported references have no recognized image extension.
	Unsupported
	// Dynamic references have no literal src.
	Dynamic
	// Unresolved references look like local images but no file exists at the path.
	Unresolved
)

// IsExternal reports whether src points outside the source tree.
func IsExternal(src string) bool {
	return strings.HasPrefix(src, "//") || schemePrefix.MatchString(src)
}

// stripQueryAndFragment drops ?query and #fragment from a reference.
func stripQueryAndFragment(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		return src[:i]
	}
	return src
}

func isImagePath(src string) bool {
	return imageExtensions[strings.ToLower(path.Ext(stripQueryAndFragment(src)))]
}

// ResolvePath maps src, as written in sourceFile, to a tree-relative path:
//
//	/x            -> <publicDir>/x
//	/public/x     -> public/x
//	public/x      -> public/x
//	./x, ../x     -> relative to the directory of sourceFile
//	x             -> project-root-relative
func ResolvePath(src, sourceFile, publicDir string) string {
	src = strings.TrimSpace(stripQueryAndFragment(src))
	publicDir = sourcefs.Clean(publicDir)

	switch {
	case strings.HasPrefix(src, "/"+publicDir+"/"):
		return sourcefs.Clean(src)
	case strings.HasPrefix(src, "/"):
		return sourcefs.Clean(path.Join(publicDir, src))
	case strings.HasPrefix(src, publicDir+"/"):
		return sourcefs.Clean(src)
	case strings.HasPrefix(src, "./") || strings.HasPrefix(src, "../"):
		return sourcefs.Clean(path.Join(path.Dir(sourcefs.Clean(sourceFile)), src))
	default:
		return sourcefs.Clean(src)
	}
}

// Resolver maps references onto existing files.
type Resolver struct {
	fs        sourcefs.FS
	publicDir string
}

// NewResolver creates a Resolver. An empty publicDir means "public".
func NewResolver(fsys sourcefs.FS, publicDir string) *Resolver {
	if publicDir == "" {
		publicDir = "public"
	}
	return &Resolver{fs: fsys, publicDir: publicDir}
}

// Resolve applies the skip rules in order, then the path precedence of ResolvePath.
func (r *Resolver) Resolve(ref Reference) (string, Resolution) {
	if ref.SrcDynamic || ref.Src == "" {
		return "", Dynamic
	}
	src := strings.TrimSpace(ref.Src)
	if IsExternal(src) {
		return "", External
	}
	if !isImagePath(src) {
		return "", Unsupported
	}

	resolved := ResolvePath(src, ref.File, r.publicDir)
	if !r.fs.Exists(resolved) {
		return resolved, Unresolved
	}
	return resolved, Resolved
}
