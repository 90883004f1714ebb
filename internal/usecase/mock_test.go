package usecase

import (
	"context"
	"sync"

	"github.com/lshcatalog/viewer/internal/domain"
)

// MockCatalogClient is a mock implementation of domain.CatalogClient.
// A gate registered for a page or product id blocks the call until closed.
type MockCatalogClient struct {
	mu sync.Mutex

	pages     map[int]*domain.ProductPage
	pageError error
	pageGates map[int]chan struct{}
	started   chan int

	products      map[string]*domain.Product
	productError  error
	productGates  map[string]chan struct{}
	productCalls  int
	similar       *domain.SimilarityResponse
	similarError  error
	similarGate   chan struct{}
	lastQuery     domain.SimilarityQuery
	fetchPageCall int
}

func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{
		pages:        make(map[int]*domain.ProductPage),
		pageGates:    make(map[int]chan struct{}),
		started:      make(chan int, 16),
		products:     make(map[string]*domain.Product),
		productGates: make(map[string]chan struct{}),
	}
}

func (m *MockCatalogClient) FetchProducts(ctx context.Context, page, perPage int) (*domain.ProductPage, error) {
	m.mu.Lock()
	m.fetchPageCall++
	gate := m.pageGates[page]
	m.mu.Unlock()

	select {
	case m.started <- page:
	default:
	}
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pageError != nil {
		return nil, m.pageError
	}
	if result, ok := m.pages[page]; ok {
		return result, nil
	}
	return &domain.ProductPage{Products: []domain.Product{}, Page: page, PerPage: perPage}, nil
}

func (m *MockCatalogClient) FetchProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	m.productCalls++
	gate := m.productGates[id]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.productError != nil {
		return nil, m.productError
	}
	if p, ok := m.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockCatalogClient) FetchSimilar(ctx context.Context, query domain.SimilarityQuery) (*domain.SimilarityResponse, error) {
	m.mu.Lock()
	m.lastQuery = query
	gate := m.similarGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.similarError != nil {
		return nil, m.similarError
	}
	if m.similar == nil {
		return &domain.SimilarityResponse{}, nil
	}
	return m.similar, nil
}

func (m *MockCatalogClient) setPage(page int, total int, products ...domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = &domain.ProductPage{Products: products, Total: total, Page: page}
}

func (m *MockCatalogClient) setProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

// product builds a test product whose title is derived from its id
func product(id string, images ...string) domain.Product {
	return domain.Product{
		ID:                id,
		Title:             "Product " + id,
		Price:             "$10.00",
		Images:            images,
		Categories:        []string{},
		RelatedAlsoBought: []string{},
		RelatedAlsoViewed: []string{},
	}
}

func score(v float64) *float64 {
	return &v
}

func flag(v bool) *bool {
	return &v
}
