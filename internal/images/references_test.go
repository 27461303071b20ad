package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSource_JSX(t *testing.T) {
	text := `import hero from '../public/hero.jpg'

export default function Page({ photo, ...rest }) {
  return (
    <main>
      <img src="/logo.png" alt="Acme company logo" />
      <Image
        src={hero}
        onLoad={() => count > 1 && done()}
        alt={"Hero banner with mountains"}
      />
      <img src={photo.url} alt={photo.caption} />
      <Image src='/team.webp' {...rest} />
      <img src="/empty.png" alt="" />
      <ImageGallery items={[]} />
    </main>
  )
}
`
	refs := ScanSource("app/page.tsx", text)
	require.Len(t, refs, 5)

	assert.Equal(t, "/logo.png", refs[0].Src)
	assert.Equal(t, 6, refs[0].Line)
	require.NotNil(t, refs[0].Alt)
	assert.Equal(t, "Acme company logo", *refs[0].Alt)

	assert.Equal(t, "../public/hero.jpg", refs[1].Src, "imported image resolves to its module path")
	assert.Equal(t, 7, refs[1].Line)
	require.NotNil(t, refs[1].Alt)
	assert.Equal(t, "Hero banner with mountains", *refs[1].Alt)

	assert.True(t, refs[2].SrcDynamic)
	assert.True(t, refs[2].AltDynamic)
	assert.Nil(t, refs[2].Alt)

	assert.Equal(t, "/team.webp", refs[3].Src)
	assert.True(t, refs[3].AltDynamic, "spread props may carry alt")

	require.NotNil(t, refs[4].Alt)
	assert.Equal(t, "", *refs[4].Alt)
}

func TestScanSource_TemplateLiteralAltIsDynamic(t *testing.T) {
	refs := ScanSource("components/Avatar.tsx", "<img src=\"/a.png\" alt={`Avatar of ${name}`} />")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].AltDynamic)
}

func TestScanSource_TypeArgumentsAreNotTags(t *testing.T) {
	text := `import { useState } from 'react'
import type { Image } from '@/lib/cms'

export function useHero(initial: Array<Image>): Image | null {
  const [hero, setHero] = useState<Image | null>(null)
  const cache = new Map<string, Image>()
  const first = (list as Image[])[0] as Promise<Image>
  return hero ?? initial[0] ?? null
}
`
	assert.Empty(t, ScanSource("components/useHero.ts", text))
}

func TestScanSource_TagAfterExpression(t *testing.T) {
	text := `export const Logo = ({ show }: Props) => show && <Image src="/logo.svg" alt="Acme logo" />
const items = list.map((item) => <img key={item.id} src={item.src} alt={item.alt} />)
`
	refs := ScanSource("components/Logo.tsx", text)
	require.Len(t, refs, 2)
	assert.Equal(t, "/logo.svg", refs[0].Src)
	assert.True(t, refs[1].SrcDynamic)
}

func TestScanSource_MissingAlt(t *testing.T) {
	refs := ScanSource("components/Card.jsx", `<div><img src="/card.png"></div>`)
	require.Len(t, refs, 1)
	assert.Nil(t, refs[0].Alt)
	assert.False(t, refs[0].AltDynamic)
}

func TestScanSource_Markdown(t *testing.T) {
	text := "# Post\n\n![Diagram of the build pipeline](/images/pipeline.png \"Pipeline\")\n\nText ![](./inline.gif)\n"
	refs := ScanSource("content/post.mdx", text)
	require.Len(t, refs, 2)

	assert.Equal(t, "/images/pipeline.png", refs[0].Src)
	assert.Equal(t, 3, refs[0].Line)
	assert.Equal(t, "Diagram of the build pipeline", *refs[0].Alt)

	assert.Equal(t, "./inline.gif", refs[1].Src)
	assert.Equal(t, 5, refs[1].Line)
	assert.Equal(t, "", *refs[1].Alt)
}

func TestScanSource_HTML(t *testing.T) {
	text := "<html>\n<body>\n<img src=\"/a.png\" alt=\"Alpha\">\n<p>x</p>\n<img src='/b.png'/>\n</body>\n</html>"
	refs := ScanSource("app/static/index.html", text)
	require.Len(t, refs, 2)

	assert.Equal(t, "/a.png", refs[0].Src)
	assert.Equal(t, 3, refs[0].Line)
	assert.Equal(t, "Alpha", *refs[0].Alt)

	assert.Equal(t, "/b.png", refs[1].Src)
	assert.Equal(t, 5, refs[1].Line)
	assert.Nil(t, refs[1].Alt)
}

func TestReference_Subject(t *testing.T) {
	assert.Equal(t, "app/page.tsx:4 (/a.png)", Reference{File: "app/page.tsx", Line: 4, Src: "/a.png"}.Subject())
	assert.Equal(t, "app/page.tsx:4 (dynamic src)", Reference{File: "app/page.tsx", Line: 4, SrcDynamic: true}.Subject())
}
