package usecase

import (
	"strings"

	"github.com/lshcatalog/viewer/internal/domain"
)

// FilterProducts narrows the loaded page to products whose title or id contains
// query, case-insensitively. It never searches beyond the snapshot. A blank
// query returns the snapshot unchanged.
func FilterProducts(snapshot *domain.CatalogSnapshot, query string) []domain.Product {
	products := snapshot.Products()
	if strings.TrimSpace(query) == "" {
		return products
	}

	needle := strings.ToLower(query)
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.ID), needle) {
			filtered = append(filtered, p)
		}
	}

	return filtered
}
