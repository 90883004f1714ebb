package domain

// Product represents a catalog entry as displayed by the viewer.
// Related ids are weak references and may point at products that are not loaded.
type Product struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Price             string            `json:"price"` // raw value from the source, not validated
	Images            []string          `json:"images"`
	Brand             string            `json:"brand,omitempty"`
	Categories        []string          `json:"categories"`
	Features          []string          `json:"features,omitempty"`
	Details           map[string]string `json:"details,omitempty"`
	SalesRank         map[string]int    `json:"salesRank,omitempty"`
	RelatedAlsoBought []string          `json:"relatedAlsoBought"`
	RelatedAlsoViewed []string          `json:"relatedAlsoViewed"`
	Similar           []string          `json:"similar,omitempty"`
}

// ProductPage is one page of the remote collection as reported by fetchProducts
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
}

// CatalogSnapshot is an immutable, ordered set of products fetched in one load.
// It is replaced wholesale on every successful fetch and never mutated.
type CatalogSnapshot struct {
	products []Product
	index    map[string]int
}

// NewCatalogSnapshot builds a snapshot over a copy of products.
// When ids repeat, lookups resolve to the first occurrence.
func NewCatalogSnapshot(products []Product) *CatalogSnapshot {
	s := &CatalogSnapshot{
		products: make([]Product, len(products)),
		index:    make(map[string]int, len(products)),
	}
	copy(s.products, products)

	for i, p := range s.products {
		if _, exists := s.index[p.ID]; !exists {
			s.index[p.ID] = i
		}
	}

	return s
}

// Products returns the snapshot contents in fetch order
func (s *CatalogSnapshot) Products() []Product {
	if s == nil {
		return []Product{}
	}
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Lookup finds a product by id. The boolean is false for dangling references.
func (s *CatalogSnapshot) Lookup(id string) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Product{}, false
	}
	return s.products[i], true
}

// Contains reports whether id is present in the snapshot
func (s *CatalogSnapshot) Contains(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// Len returns the number of products in the snapshot
func (s *CatalogSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.products)
}
