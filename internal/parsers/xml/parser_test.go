package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Shop</title>
	<item>
		<title>Полотенце &amp; халат&nbsp;</title>
		<content:encoded><![CDATA[<p>Мягкое</p>]]></content:encoded>
		<excerpt:encoded><![CDATA[Коротко]]></excerpt:encoded>
		<wp:post_id>42</wp:post_id>
		<category domain="product_cat" nicename="towels"><![CDATA[Полотенца]]></category>
		<category domain="pa_cvet" nicename="belyj"><![CDATA[Белый]]></category>
		<wp:postmeta><wp:meta_key>_price</wp:meta_key><wp:meta_value><![CDATA[250]]></wp:meta_value></wp:postmeta>
	</item>
	<item>
		<title>Second</title>
	</item>
</channel>
</rss>`

func TestParse_NamespacedTree(t *testing.T) {
	tree, err := NewParser(DefaultXmlOptions()).Parse([]byte(sampleFeed))
	require.NoError(t, err)

	items := AsMaps(ValueAtPath(tree, "rss.channel.item"))
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Полотенце & халат", Child(first, "title"))
	assert.Equal(t, "<p>Мягкое</p>", Child(first, "content:encoded"))
	assert.Equal(t, "Коротко", Child(first, "excerpt:encoded"))
	assert.Equal(t, "42", Child(first, "wp:post_id"))

	cats := AsMaps(first["category"])
	require.Len(t, cats, 2)
	assert.Equal(t, "product_cat", Attr(cats[0], "domain"))
	assert.Equal(t, "towels", Attr(cats[0], "nicename"))
	assert.Equal(t, "Полотенца", Text(cats[0]))

	// single wp:postmeta stays an object and is normalized on read
	metas := AsMaps(first["wp:postmeta"])
	require.Len(t, metas, 1)
	assert.Equal(t, "_price", Child(metas[0], "wp:meta_key"))
	assert.Equal(t, "250", Child(metas[0], "wp:meta_value"))

	assert.Equal(t, "2.0", Attr(ValueAtPath(tree, "rss").(map[string]interface{}), "version"))
}

func TestParse_CanonicalPrefixForAlternateBinding(t *testing.T) {
	doc := `<rss xmlns:w="http://wordpress.org/export/1.1/"><channel><item><w:post_type>product</w:post_type></item></channel></rss>`
	tree, err := NewParser(DefaultXmlOptions()).Parse([]byte(doc))
	require.NoError(t, err)

	item := AsMaps(ValueAtPath(tree, "rss.channel.item"))[0]
	assert.Equal(t, "product", Child(item, "wp:post_type"))
}

func TestParse_UndeclaredPrefixKept(t *testing.T) {
	doc := `<rss><channel><item><wp:status>publish</wp:status></item></channel></rss>`
	tree, err := NewParser(DefaultXmlOptions()).Parse([]byte(doc))
	require.NoError(t, err)

	item := AsMaps(ValueAtPath(tree, "rss.channel.item"))[0]
	assert.Equal(t, "publish", Child(item, "wp:status"))
}

func TestParse_Windows1251(t *testing.T) {
	doc := `<?xml version="1.0" encoding="windows-1251"?><rss><channel><item><title>Махровое</title></item></channel></rss>`
	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte(doc))
	require.NoError(t, err)

	tree, err := NewParser(DefaultXmlOptions()).Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, "Махровое", Text(ValueAtPath(tree, "rss.channel.item.title")))
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"mismatched tag", `<rss><channel><item><title>x</title></channel></rss>`},
		{"unclosed document", `<rss><channel><item>`},
		{"bad entity", `<rss><channel><title>&bogus;</title></channel></rss>`},
		{"not xml", `just some text`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(DefaultXmlOptions()).Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	tree, err := NewParser(DefaultXmlOptions()).Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Nil(t, ValueAtPath(tree, "rss.channel.item"))
}

func TestAsSlice(t *testing.T) {
	assert.Nil(t, AsSlice(nil))
	assert.Len(t, AsSlice(map[string]interface{}{}), 1)
	assert.Len(t, AsSlice([]interface{}{1, 2}), 2)
	assert.Empty(t, AsMaps("text"))
}

func TestValueAtPath_CaseInsensitiveFallback(t *testing.T) {
	tree := map[string]interface{}{"RSS": map[string]interface{}{"Channel": map[string]interface{}{TextKey: "x"}}}
	assert.Equal(t, "x", Text(ValueAtPath(tree, "rss.channel")))
	assert.Nil(t, ValueAtPath(tree, "rss.missing"))
}
