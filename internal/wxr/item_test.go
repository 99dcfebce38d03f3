package wxr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<item>
		<title>thumb</title>
		<guid isPermaLink="false">https://shop.example/wp-content/uploads/belyj.jpg</guid>
		<wp:post_id>10</wp:post_id>
		<wp:post_type>attachment</wp:post_type>
	</item>
	<item>
		<title>gallery</title>
		<wp:post_id>11</wp:post_id>
		<wp:post_type>attachment</wp:post_type>
		<wp:attachment_url>https://shop.example/wp-content/uploads/sinij.jpg</wp:attachment_url>
	</item>
	<item>
		<title><![CDATA[Полотенце махровое]]></title>
		<content:encoded><![CDATA[<p>Плотность 450 г/м²</p>]]></content:encoded>
		<excerpt:encoded><![CDATA[]]></excerpt:encoded>
		<description>Описание</description>
		<wp:post_id>20</wp:post_id>
		<wp:post_type>product</wp:post_type>
		<wp:status>publish</wp:status>
		<wp:post_name>%d0%bf%d0%be%d0%bb%d0%be%d1%82%d0%b5%d0%bd%d1%86%d0%b5</wp:post_name>
		<category domain="product_cat" nicename="towels"><![CDATA[Полотенца]]></category>
		<category domain="pa_cvet" nicename="belyj"><![CDATA[Белый]]></category>
		<category domain="pa_cvet" nicename="mahra"><![CDATA[Махра]]></category>
		<category domain="pa_cvet" nicename="sinij"><![CDATA[%D0%A1%D0%B8%D0%BD%D0%B8%D0%B9]]></category>
		<category domain="pa_razmer" nicename="30x30"><![CDATA[30x30]]></category>
		<category domain="pa_razmer" nicename="30x30"><![CDATA[30x30]]></category>
		<category domain="pa_razmer" nicename="50x90"><![CDATA[ 50х90 ]]></category>
		<category domain="product_type" nicename="variable"><![CDATA[variable]]></category>
		<wp:postmeta><wp:meta_key>_sku</wp:meta_key><wp:meta_value><![CDATA[TW-1]]></wp:meta_value></wp:postmeta>
		<wp:postmeta><wp:meta_key>_price</wp:meta_key><wp:meta_value><![CDATA[250]]></wp:meta_value></wp:postmeta>
		<wp:postmeta><wp:meta_key>_price</wp:meta_key><wp:meta_value><![CDATA[550,5]]></wp:meta_value></wp:postmeta>
		<wp:postmeta><wp:meta_key>_thumbnail_id</wp:meta_key><wp:meta_value>10</wp:meta_value></wp:postmeta>
		<wp:postmeta><wp:meta_key>_product_image_gallery</wp:meta_key><wp:meta_value>11, 10,99,</wp:meta_value></wp:postmeta>
	</item>
</channel>
</rss>`

func TestParse(t *testing.T) {
	items, err := Parse([][]byte{[]byte(feed)})
	require.NoError(t, err)
	require.Len(t, items, 3)

	product := items[2]
	assert.Equal(t, 3, product.Row)
	assert.Equal(t, "Полотенце махровое", product.Title)
	assert.Equal(t, "<p>Плотность 450 г/м²</p>", product.Content)
	assert.Equal(t, "Описание", product.Excerpt, "empty excerpt falls back to description")
	assert.True(t, product.IsImportable())
	assert.Equal(t, "полотенце", product.Slug())
	assert.Len(t, product.Terms, 8)

	sku, ok := product.MetaValue(MetaSKU)
	assert.True(t, ok)
	assert.Equal(t, "TW-1", sku)
	assert.Equal(t, []string{"250", "550,5"}, product.MetaValues(MetaPrice))

	price, _ := product.MetaValue(MetaPrice)
	assert.Equal(t, "550,5", price, "last value wins")

	assert.False(t, items[0].IsImportable())
	assert.Equal(t, "https://shop.example/wp-content/uploads/belyj.jpg", items[0].GUID)
}

func TestParse_RowNumbersSpanDocuments(t *testing.T) {
	second := `<rss><channel><item><title>x</title></item></channel></rss>`
	items, err := Parse([][]byte{[]byte(feed), []byte(second)})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, 4, items[3].Row)
}

func TestParse_MalformedDocumentFailsRun(t *testing.T) {
	items, err := Parse([][]byte{[]byte(feed), []byte(`<rss><channel><item></channel>`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 2")
	assert.Nil(t, items)
}

func TestParse_NoChannel(t *testing.T) {
	items, err := Parse([][]byte{[]byte(`<rss version="2.0"/>`)})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAttachmentIndex(t *testing.T) {
	items, err := Parse([][]byte{[]byte(feed)})
	require.NoError(t, err)

	index := BuildAttachmentIndex(items)
	assert.Len(t, index, 2)
	assert.Equal(t, "https://shop.example/wp-content/uploads/sinij.jpg", index["11"])

	assert.Equal(t, []string{
		"https://shop.example/wp-content/uploads/belyj.jpg",
		"https://shop.example/wp-content/uploads/sinij.jpg",
	}, index.Images(items[2]))

	assert.Empty(t, index.Images(Item{}))
}

func TestBuildAttachmentIndex_SkipsIncomplete(t *testing.T) {
	index := BuildAttachmentIndex([]Item{
		{PostType: PostTypeAttachment, PostID: "1"},
		{PostType: PostTypeAttachment, AttachmentURL: "https://x/a.jpg"},
		{PostType: PostTypeProduct, PostID: "2", GUID: "https://x/b.jpg"},
	})
	assert.Empty(t, index)
}

func TestExtractTaxonomy(t *testing.T) {
	items, err := Parse([][]byte{[]byte(feed)})
	require.NoError(t, err)

	tax := ExtractTaxonomy(items[2], NewColorFilter(nil))
	assert.Equal(t, "Полотенца", tax.Category)
	assert.Equal(t, []string{"Белый", "Синий"}, tax.Colors)
	assert.Equal(t, []string{"Махра"}, tax.Rejected)
	assert.Equal(t, []string{"30x30", "50х90"}, tax.Sizes)
	assert.True(t, tax.IsVariable)
}

func TestExtractTaxonomy_CategoryFallback(t *testing.T) {
	it := Item{Terms: []Term{
		{Domain: "product_tag", Value: "Новинки"},
		{Domain: DomainColor, Value: "Серый"},
	}}
	tax := ExtractTaxonomy(it, nil)
	assert.Equal(t, "Новинки", tax.Category)
	assert.Equal(t, []string{"Серый"}, tax.Colors)
	assert.False(t, tax.IsVariable)

	assert.Empty(t, ExtractTaxonomy(Item{}, nil).Category)
}

func TestColorFilter(t *testing.T) {
	f := NewColorFilter(nil)
	tests := []struct {
		value string
		want  bool
	}{
		{"Белый", false},
		{"Пестротканное", true},
		{"гладкокрашеные", true},
		{"МАХРА", true},
		{"100% хлопок", true},
		{"Бирюза", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsNonColor(tt.value))
		})
	}

	custom := NewColorFilter([]string{" Велюр "})
	assert.True(t, custom.IsNonColor("велюр"))
	assert.False(t, custom.IsNonColor("махра"))
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "Синий", Decode("%D0%A1%D0%B8%D0%BD%D0%B8%D0%B9"))
	assert.Equal(t, "100%", Decode("100%"))
	assert.Equal(t, "plain", Decode(" plain "))
}
