package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrConflict is returned when a write would break a uniqueness constraint
var ErrConflict = errors.New("catalog: unique constraint violated")

// MemoryStore is an in-process Store used for dry runs and tests
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[string]Category
	products   map[string]Product
	variants   map[string]Variant
	now        func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[string]Category),
		products:   make(map[string]Product),
		variants:   make(map[string]Variant),
		now:        time.Now,
	}
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Slug, c.Slug) {
			return fmt.Errorf("category slug %q: %w", c.Slug, ErrConflict)
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = s.now()
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) FindProductBySKUOrSlug(ctx context.Context, sku, slug string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.sortedProducts() {
		if (sku != "" && p.SKU == sku) || (slug != "" && p.Slug == slug) {
			return cloneProduct(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkProductUnique(p, ""); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = *cloneProduct(*p)
	return nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	if err := s.checkProductUnique(p, p.ID); err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = *cloneProduct(*p)
	return nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedProducts()
	out := make([]Product, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, *cloneProduct(p))
	}
	return out, nil
}

func (s *MemoryStore) FindVariant(ctx context.Context, productID string, color, size *string) (*Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.variants {
		if v.ProductID == productID && SameOption(v.Color, color) && SameOption(v.Size, size) {
			return cloneVariant(v), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateVariant(ctx context.Context, v *Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[v.ProductID]; !ok {
		return fmt.Errorf("product %s: %w", v.ProductID, ErrNotFound)
	}
	if err := s.checkVariantUnique(v, ""); err != nil {
		return err
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := s.now()
	v.CreatedAt, v.UpdatedAt = now, now
	s.variants[v.ID] = *cloneVariant(*v)
	return nil
}

func (s *MemoryStore) UpdateVariant(ctx context.Context, v *Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.variants[v.ID]
	if !ok {
		return fmt.Errorf("variant %s: %w", v.ID, ErrNotFound)
	}
	if err := s.checkVariantUnique(v, v.ID); err != nil {
		return err
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = s.now()
	s.variants[v.ID] = *cloneVariant(*v)
	return nil
}

func (s *MemoryStore) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Variant
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, *cloneVariant(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

func (s *MemoryStore) sortedProducts() []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

func (s *MemoryStore) checkProductUnique(p *Product, selfID string) error {
	for id, existing := range s.products {
		if id == selfID {
			continue
		}
		if existing.SKU == p.SKU {
			return fmt.Errorf("product sku %q: %w", p.SKU, ErrConflict)
		}
		if existing.Slug == p.Slug {
			return fmt.Errorf("product slug %q: %w", p.Slug, ErrConflict)
		}
	}
	return nil
}

func (s *MemoryStore) checkVariantUnique(v *Variant, selfID string) error {
	for id, existing := range s.variants {
		if id == selfID || existing.ProductID != v.ProductID {
			continue
		}
		if SameOption(existing.Color, v.Color) && SameOption(existing.Size, v.Size) {
			return fmt.Errorf("variant (%s, %s): %w", optionString(v.Color), optionString(v.Size), ErrConflict)
		}
	}
	return nil
}

func optionString(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func cloneProduct(p Product) *Product {
	p.Images = append([]string(nil), p.Images...)
	if p.Content != nil {
		content := *p.Content
		p.Content = &content
	}
	return &p
}

func cloneVariant(v Variant) *Variant {
	v.Color = cloneOption(v.Color)
	v.Size = cloneOption(v.Size)
	v.ImageURL = cloneOption(v.ImageURL)
	return &v
}

func cloneOption(s *string) *string {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
