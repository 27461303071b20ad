package sourcefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree(fstest.MapFS{
		"app/page.tsx":             {Data: []byte("home")},
		"app/about/page.tsx":       {Data: []byte("about")},
		"app/api/users/route.ts":   {Data: []byte("api")},
		"pages/blog/index.mdx":     {Data: []byte("blog")},
		"public/images/hero.jpg":   {Data: make([]byte, 2048)},
		"public/images/hero.webp":  {Data: make([]byte, 512)},
		"components/Card.jsx":      {Data: []byte("card")},
		"components/_internal.jsx": {Data: []byte("internal")},
	}, 4)
	require.NoError(t, err)
	return tree
}

func TestTree_GlobSortedAndDeduplicated(t *testing.T) {
	tree := newTestTree(t)

	matches, err := tree.Glob([]string{"app/**/*.tsx", "app/**/page.tsx", "pages/**/*.{tsx,mdx}"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/about/page.tsx", "app/page.tsx", "pages/blog/index.mdx"}, matches)
}

func TestTree_GlobIgnore(t *testing.T) {
	tree := newTestTree(t)

	matches, err := tree.Glob([]string{"**/*.{ts,tsx,jsx}"}, []string{"**/api/**", "**/_*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/about/page.tsx", "app/page.tsx", "components/Card.jsx"}, matches)
}

func TestTree_GlobAlternationInBracketedDirectories(t *testing.T) {
	tree, err := NewTree(fstest.MapFS{
		"app/page.tsx":                {Data: []byte("home")},
		"app/about/page.mdx":          {Data: []byte("about")},
		"app/learn/[topic]/page.mdx":  {Data: []byte("topic")},
		"app/blog/[slug]/page.tsx":    {Data: []byte("post")},
		"app/docs/[...path]/page.tsx": {Data: []byte("docs")},
		"app/blog/[slug]/hero.tsx":    {Data: []byte("hero")},
	}, 0)
	require.NoError(t, err)

	matches, err := tree.Glob([]string{"app/**/page.{tsx,jsx,ts,js,mdx}"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"app/about/page.mdx",
		"app/blog/[slug]/page.tsx",
		"app/docs/[...path]/page.tsx",
		"app/learn/[topic]/page.mdx",
		"app/page.tsx",
	}, matches)
}

func TestExpandBraces(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"app/**/page.tsx", []string{"app/**/page.tsx"}},
		{"page.{tsx,mdx}", []string{"page.tsx", "page.mdx"}},
		{"{app,pages}/**/*.{ts,js}", []string{"app/**/*.ts", "app/**/*.js", "pages/**/*.ts", "pages/**/*.js"}},
		{"a/{x,{y,z}}/b", []string{"a/x/b", "a/y/b", "a/z/b"}},
		{"a/{x,y", []string{"a/{x,y"}},
		{"a/\\{x,y}", []string{"a/\\{x,y}"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, expandBraces(tt.pattern))
		})
	}
}

func TestTree_GlobMissingDirectoryMatchesNothing(t *testing.T) {
	tree := newTestTree(t)

	matches, err := tree.Glob([]string{"src/app/**/page.tsx"}, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestTree_ReadTextCaches(t *testing.T) {
	fsys := fstest.MapFS{"a.txt": {Data: []byte("first")}}
	tree, err := NewTree(fsys, 0)
	require.NoError(t, err)

	text, err := tree.ReadText("./a.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	fsys["a.txt"] = &fstest.MapFile{Data: []byte("second")}
	text, err = tree.ReadText("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", text, "cached text should be served until Reset")

	tree.Reset()
	text, err = tree.ReadText("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestTree_ReadTextMissingFile(t *testing.T) {
	tree := newTestTree(t)

	_, err := tree.ReadText("nope.tsx")
	require.Error(t, err)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "nope.tsx", readErr.Path)
}

func TestTree_SizeAndExists(t *testing.T) {
	tree := newTestTree(t)

	size, err := tree.Size("public/images/hero.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), size)

	assert.True(t, tree.Exists("public/images/hero.webp"))
	assert.True(t, tree.Exists("/public/images/hero.webp"))
	assert.False(t, tree.Exists("public/images"))
	assert.False(t, tree.Exists("public/images/missing.png"))

	_, err = tree.Size("public/images")
	assert.Error(t, err)
}

func TestNewOSTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "page.tsx"), []byte("x"), 0644))

	tree, err := NewOSTree(root, 0)
	require.NoError(t, err)

	matches, err := tree.Glob([]string{"app/**/page.tsx"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/page.tsx"}, matches)

	_, err = NewOSTree(filepath.Join(root, "missing"), 0)
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "public/a.png", Clean("./public/a.png"))
	assert.Equal(t, "public/a.png", Clean("/public/a.png"))
	assert.Equal(t, "a.png", Clean("public/../a.png"))
	assert.Equal(t, "b/c.png", Clean(`b\c.png`))
}
