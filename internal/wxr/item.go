// Package wxr turns WordPress WXR exports into typed items and writes catalogs back out as WXR.
package wxr

import (
	"fmt"
	"net/url"
	"strings"

	xmlparser "github.com/tkshop/catalog-service/internal/parsers/xml"
)

// Post types and statuses the importer cares about
const (
	PostTypeProduct    = "product"
	PostTypeAttachment = "attachment"
	StatusPublish      = "publish"
)

// Meta keys read from wp:postmeta
const (
	MetaSKU          = "_sku"
	MetaPrice        = "_price"
	MetaStockStatus  = "_stock_status"
	MetaStock        = "_stock"
	MetaThumbnailID  = "_thumbnail_id"
	MetaImageGallery = "_product_image_gallery"
)

// Term is one <category> element of an item
type Term struct {
	Domain   string
	Nicename string
	Value    string
}

// Meta is one wp:postmeta key/value pair. Keys may repeat.
type Meta struct {
	Key   string
	Value string
}

// Item is the typed form of one <item> element
type Item struct {
	Row           int // 1-based position among all items of the run
	Title         string
	Content       string
	Excerpt       string
	PostID        string
	PostType      string
	Status        string
	PostName      string
	AttachmentURL string
	GUID          string
	Terms         []Term
	Meta          []Meta
}

// MetaValue returns the last value recorded for key
func (it Item) MetaValue(key string) (string, bool) {
	for i := len(it.Meta) - 1; i >= 0; i-- {
		if it.Meta[i].Key == key {
			return it.Meta[i].Value, true
		}
	}
	return "", false
}

// MetaValues returns every value recorded for key in document order
func (it Item) MetaValues(key string) []string {
	var values []string
	for _, m := range it.Meta {
		if m.Key == key {
			values = append(values, m.Value)
		}
	}
	return values
}

// IsImportable reports whether the item is a published product
func (it Item) IsImportable() bool {
	return it.PostType == PostTypeProduct && it.Status == StatusPublish
}

// Slug returns the percent-decoded post_name
func (it Item) Slug() string {
	return Decode(it.PostName)
}

// Decode percent-decodes a transport-encoded value; undecodable input is returned trimmed but otherwise unchanged
func Decode(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(decoded)
}

// Parse decodes every document and returns their items in order with run-wide row numbers.
// A malformed document fails the whole call.
func Parse(docs [][]byte) ([]Item, error) {
	parser := xmlparser.NewParser(xmlparser.DefaultXmlOptions())

	var items []Item
	for i, doc := range docs {
		tree, err := parser.Parse(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML document %d: %w", i+1, err)
		}
		for _, node := range xmlparser.AsMaps(xmlparser.ValueAtPath(tree, "rss.channel.item")) {
			item := itemFromNode(node)
			item.Row = len(items) + 1
			items = append(items, item)
		}
	}
	return items, nil
}

func itemFromNode(node map[string]interface{}) Item {
	item := Item{
		Title:         xmlparser.Child(node, "title"),
		Content:       xmlparser.Child(node, "content:encoded"),
		Excerpt:       xmlparser.Child(node, "excerpt:encoded"),
		PostID:        xmlparser.Child(node, "wp:post_id"),
		PostType:      xmlparser.Child(node, "wp:post_type"),
		Status:        xmlparser.Child(node, "wp:status"),
		PostName:      xmlparser.Child(node, "wp:post_name"),
		AttachmentURL: xmlparser.Child(node, "wp:attachment_url"),
		GUID:          xmlparser.Child(node, "guid"),
	}
	if item.Excerpt == "" {
		item.Excerpt = xmlparser.Child(node, "description")
	}

	for _, cat := range xmlparser.AsMaps(node["category"]) {
		item.Terms = append(item.Terms, Term{
			Domain:   xmlparser.Attr(cat, "domain"),
			Nicename: xmlparser.Attr(cat, "nicename"),
			Value:    xmlparser.Text(cat),
		})
	}

	for _, meta := range xmlparser.AsMaps(node["wp:postmeta"]) {
		key := xmlparser.Child(meta, "wp:meta_key")
		if key == "" {
			continue
		}
		item.Meta = append(item.Meta, Meta{
			Key:   key,
			Value: xmlparser.Child(meta, "wp:meta_value"),
		})
	}
	return item
}
