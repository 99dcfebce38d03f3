package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/wxr"
)

// ProductSummary is a product with its derived price range
type ProductSummary struct {
	ID         string       `json:"id" jsonschema:"required"`
	SKU        string       `json:"sku" jsonschema:"required"`
	Slug       string       `json:"slug" jsonschema:"required"`
	Title      string       `json:"title" jsonschema:"required"`
	CategoryID string       `json:"categoryId"`
	Tier       catalog.Tier `json:"tier" jsonschema:"enum=ECONOMY,enum=MIDDLE,enum=LUXURY"`
	Currency   string       `json:"currency"`
	PriceMin   float64      `json:"priceMin"`
	PriceMax   float64      `json:"priceMax"`
	Variants   int          `json:"variants"`
	IsInStock  bool         `json:"isInStock"`
}

// ListProductsResponse represents the response for listing products
type ListProductsResponse struct {
	Products []ProductSummary `json:"products" jsonschema:"required"`
	Total    int              `json:"total" jsonschema:"required"`
}

// ListProducts returns every product with its price range
// GET /internal/products
func (h *Handler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		variants, err := h.store.ListVariants(ctx, p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list variants"})
			return
		}
		lo, hi := catalog.PriceRange(p, variants)
		summaries = append(summaries, ProductSummary{
			ID:         p.ID,
			SKU:        p.SKU,
			Slug:       p.Slug,
			Title:      p.Title,
			CategoryID: p.CategoryID,
			Tier:       p.Tier,
			Currency:   p.Currency,
			PriceMin:   lo,
			PriceMax:   hi,
			Variants:   len(variants),
			IsInStock:  p.IsInStock,
		})
	}
	c.JSON(http.StatusOK, ListProductsResponse{Products: summaries, Total: len(summaries)})
}

// ExportCatalog streams the catalog as a WXR document
// GET /internal/export
func (h *Handler) ExportCatalog(c *gin.Context) {
	var buf bytes.Buffer
	n, err := wxr.ExportCatalog(c.Request.Context(), h.store, &buf, wxr.ExportOptions{SiteURL: h.cfg.SiteURL, Title: "Catalog"})
	if err != nil {
		log.Error().Err(err).Msg("Catalog export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export catalog"})
		return
	}
	log.Info().Int("products", n).Msg("Catalog exported")

	c.Header("Content-Disposition", `attachment; filename="catalog-`+time.Now().Format("2006-01-02")+`.xml"`)
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", buf.Bytes())
}
