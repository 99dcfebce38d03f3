package wxr

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/matching"
)

// ExportOptions controls channel metadata of an export
type ExportOptions struct {
	SiteURL string
	Title   string
}

// ExportEntry is one product with the data needed to write it
type ExportEntry struct {
	Product      catalog.Product
	CategoryName string
	Variants     []catalog.Variant
}

type cdata struct {
	Value string `xml:",cdata"`
}

type rssDocument struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	NSExcerpt string     `xml:"xmlns:excerpt,attr"`
	NSContent string     `xml:"xmlns:content,attr"`
	NSWfw     string     `xml:"xmlns:wfw,attr"`
	NSDC      string     `xml:"xmlns:dc,attr"`
	NSWP      string     `xml:"xmlns:wp,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	WXRVersion  string    `xml:"wp:wxr_version"`
	Items       []rssItem `xml:"item"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssCategory struct {
	Domain   string `xml:"domain,attr"`
	Nicename string `xml:"nicename,attr"`
	Value    string `xml:",cdata"`
}

type rssMeta struct {
	Key   string `xml:"wp:meta_key"`
	Value cdata  `xml:"wp:meta_value"`
}

type rssItem struct {
	Title         string        `xml:"title"`
	Link          string        `xml:"link"`
	GUID          rssGUID       `xml:"guid"`
	Description   string        `xml:"description"`
	Content       cdata         `xml:"content:encoded"`
	Excerpt       cdata         `xml:"excerpt:encoded"`
	PostID        string        `xml:"wp:post_id"`
	PostType      string        `xml:"wp:post_type"`
	Status        string        `xml:"wp:status"`
	PostName      string        `xml:"wp:post_name"`
	AttachmentURL string        `xml:"wp:attachment_url,omitempty"`
	Categories    []rssCategory `xml:"category"`
	Meta          []rssMeta     `xml:"wp:postmeta"`
}

// Export writes entries as a WXR 1.2 document the importer can read back.
// Variant colors and sizes become pa_cvet / pa_razmer terms, per-size prices repeated _price meta
// ordered small to large, and images attachment items referenced by _thumbnail_id and the gallery.
func Export(w io.Writer, entries []ExportEntry, opts ExportOptions) error {
	site := strings.TrimRight(opts.SiteURL, "/")
	if site == "" {
		site = "https://example.com"
	}
	title := opts.Title
	if title == "" {
		title = "Export"
	}

	doc := rssDocument{
		Version:   "2.0",
		NSExcerpt: "http://wordpress.org/export/1.2/excerpt/",
		NSContent: "http://purl.org/rss/1.0/modules/content/",
		NSWfw:     "http://wellformedweb.org/CommentAPI/",
		NSDC:      "http://purl.org/dc/elements/1.1/",
		NSWP:      "http://wordpress.org/export/1.2/",
		Channel: rssChannel{
			Title:       title,
			Link:        site,
			Description: "Products export",
			WXRVersion:  "1.2",
		},
	}

	attachmentIDs := make(map[string]string)
	nextAttachment := 1
	for _, e := range entries {
		var imageIDs []string
		for _, img := range e.Product.Images {
			id, ok := attachmentIDs[img]
			if !ok {
				id = "att-" + strconv.Itoa(nextAttachment)
				nextAttachment++
				attachmentIDs[img] = id
				doc.Channel.Items = append(doc.Channel.Items, attachmentItem(id, img))
			}
			imageIDs = append(imageIDs, id)
		}
		doc.Channel.Items = append(doc.Channel.Items, productItem(site, e, imageIDs))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode WXR: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ExportCatalog loads every product with its category and variants from store and exports them
func ExportCatalog(ctx context.Context, store catalog.Store, w io.Writer, opts ExportOptions) (int, error) {
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list categories: %w", err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	entries := make([]ExportEntry, 0, len(products))
	for _, p := range products {
		variants, err := store.ListVariants(ctx, p.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to list variants of %s: %w", p.SKU, err)
		}
		entries = append(entries, ExportEntry{Product: p, CategoryName: names[p.CategoryID], Variants: variants})
	}

	if err := Export(w, entries, opts); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func attachmentItem(id, url string) rssItem {
	return rssItem{
		Title:         id,
		Link:          url,
		GUID:          rssGUID{IsPermaLink: "false", Value: url},
		PostID:        id,
		PostType:      PostTypeAttachment,
		Status:        "inherit",
		PostName:      id,
		AttachmentURL: url,
	}
}

func productItem(site string, e ExportEntry, imageIDs []string) rssItem {
	p := e.Product
	content := p.Description
	if p.Content != nil && *p.Content != "" {
		content = *p.Content
	}

	item := rssItem{
		Title:    p.Title,
		Link:     site + "/product/" + p.Slug,
		GUID:     rssGUID{IsPermaLink: "false", Value: fmt.Sprintf("%s/?post_type=product&p=%s", site, p.ID)},
		Content:  cdata{content},
		Excerpt:  cdata{p.Description},
		PostID:   p.ID,
		PostType: PostTypeProduct,
		Status:   StatusPublish,
		PostName: p.Slug,
	}

	if e.CategoryName != "" {
		item.Categories = append(item.Categories, term(DomainCategory, e.CategoryName))
	}

	colors, sizes := variantAxes(e.Variants)
	if len(e.Variants) > 0 {
		item.Categories = append(item.Categories, term(DomainProductType, ProductTypeVariable))
	}
	for _, c := range colors {
		item.Categories = append(item.Categories, term(DomainColor, c))
	}
	for _, s := range sizes {
		item.Categories = append(item.Categories, term(DomainSize, s))
	}

	item.Meta = append(item.Meta, meta(MetaSKU, p.SKU))
	for _, price := range exportPrices(p, e.Variants, sizes) {
		item.Meta = append(item.Meta, meta(MetaPrice, strconv.FormatFloat(price, 'f', -1, 64)))
	}
	stockStatus := "outofstock"
	if p.IsInStock {
		stockStatus = "instock"
	}
	item.Meta = append(item.Meta,
		meta(MetaStockStatus, stockStatus),
		meta(MetaStock, strconv.Itoa(p.Stock)),
	)
	if len(imageIDs) > 0 {
		item.Meta = append(item.Meta, meta(MetaThumbnailID, imageIDs[0]))
		if len(imageIDs) > 1 {
			item.Meta = append(item.Meta, meta(MetaImageGallery, strings.Join(imageIDs[1:], ",")))
		}
	}
	return item
}

func term(domain, value string) rssCategory {
	return rssCategory{Domain: domain, Nicename: matching.Slugify(value), Value: value}
}

func meta(key, value string) rssMeta {
	return rssMeta{Key: key, Value: cdata{value}}
}

// variantAxes returns distinct colors in first-seen order and distinct sizes ordered by area
func variantAxes(variants []catalog.Variant) (colors, sizes []string) {
	seenColor := make(map[string]bool)
	seenSize := make(map[string]bool)
	for _, v := range variants {
		if v.Color != nil && !seenColor[*v.Color] {
			seenColor[*v.Color] = true
			colors = append(colors, *v.Color)
		}
		if v.Size != nil && !seenSize[*v.Size] {
			seenSize[*v.Size] = true
			sizes = append(sizes, *v.Size)
		}
	}
	return colors, matching.SortSizesByArea(sizes)
}

// exportPrices emits one price per size (small to large), one per variant for size-less
// variants, or the product price for simple products
func exportPrices(p catalog.Product, variants []catalog.Variant, sizes []string) []float64 {
	if len(variants) == 0 {
		return []float64{p.Price}
	}
	if len(sizes) == 0 {
		prices := make([]float64, 0, len(variants))
		for _, v := range variants {
			prices = append(prices, v.Price)
		}
		return prices
	}
	prices := make([]float64, 0, len(sizes))
	for _, s := range sizes {
		for _, v := range variants {
			if v.Size != nil && *v.Size == s {
				prices = append(prices, v.Price)
				break
			}
		}
	}
	return prices
}
