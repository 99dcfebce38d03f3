package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/matching"
)

var (
	// ErrNoCategory is returned for an item without any taxonomy term
	ErrNoCategory = errors.New("could not determine category")
	// ErrCategoryNotFound is returned when a category is unknown and auto-create is off
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryNotFoundError names a category that could not be resolved; it matches ErrCategoryNotFound
type CategoryNotFoundError struct {
	Name string
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category %q not found; create it first or supply a mapping", e.Name)
}

func (e *CategoryNotFoundError) Is(target error) bool {
	return target == ErrCategoryNotFound
}

// categoryIndex resolves lower-cased category names and slugs to ids for one run
type categoryIndex struct {
	byKey  map[string]string
	bySlug map[string]string
}

// loadCategories preloads every stored category, then layers the explicit mapping on top
func loadCategories(ctx context.Context, store catalog.Store, mapping map[string]string) (*categoryIndex, error) {
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	idx := &categoryIndex{
		byKey:  make(map[string]string, len(categories)*2+len(mapping)),
		bySlug: make(map[string]string, len(categories)),
	}
	for _, c := range categories {
		idx.byKey[matching.NormalizeKey(c.Name)] = c.ID
		idx.byKey[matching.NormalizeKey(c.Slug)] = c.ID
		idx.bySlug[c.Slug] = c.ID
	}
	for name, id := range mapping {
		idx.byKey[matching.NormalizeKey(name)] = id
	}
	return idx, nil
}

// resolveCategory returns the id of the named category, creating it when allowed
func (s *Session) resolveCategory(ctx context.Context, row int, name string) (string, error) {
	if name == "" {
		return "", ErrNoCategory
	}
	key := matching.NormalizeKey(name)
	if id, ok := s.categories.byKey[key]; ok {
		return id, nil
	}

	if !s.opts.AutoCreateCategories {
		return "", &CategoryNotFoundError{Name: name}
	}

	slug := matching.Slugify(name)
	if slug == "" {
		slug = "category"
	}
	// a category whose name differs only in spelling may already own the slug
	if id, ok := s.categories.bySlug[slug]; ok {
		s.categories.byKey[key] = id
		return id, nil
	}

	c := &catalog.Category{Name: name, Slug: slug}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return "", fmt.Errorf("failed to create category %q: %w", name, err)
	}
	s.categories.byKey[key] = c.ID
	s.categories.byKey[slug] = c.ID
	s.categories.bySlug[slug] = c.ID
	categoriesCreated.Inc()
	s.result.addWarning(row, "category %q created", name)
	s.log.Info().Str("category", name).Str("slug", slug).Msg("Created category")
	return c.ID, nil
}
