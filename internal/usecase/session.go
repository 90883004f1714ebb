package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
)

const sessionModule = "session"

// Defaults for the similarity controls
const (
	DefaultK    = 5
	DefaultMaxK = 50
)

// SessionConfig holds configuration shared by all viewer sessions
type SessionConfig struct {
	Pagination    PaginationConfig
	DefaultMethod domain.Method
	DefaultK      int
	MaxK          int
}

// GalleryItem is the card model for one product in the gallery
type GalleryItem struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       DisplayPrice `json:"price"`
	Image       string       `json:"image"`
}

// GalleryView is the read-only model of the gallery page
type GalleryView struct {
	Items     []GalleryItem `json:"items"`
	Query     string        `json:"query"`
	Window    PageWindow    `json:"window"`
	Loading   bool          `json:"loading"`
	Loaded    bool          `json:"loaded"`
	LoadError string        `json:"loadError,omitempty"`
}

// DetailView is the read-only model of the product detail page
type DetailView struct {
	RequestedID    string                    `json:"requestedId,omitempty"`
	Product        *domain.Product           `json:"product,omitempty"`
	Price          DisplayPrice              `json:"price"`
	Carousel       *CarouselView             `json:"carousel,omitempty"`
	Breadcrumb     string                    `json:"breadcrumb"`
	AlsoBought     []ItemRef                 `json:"alsoBought"`
	AlsoViewed     []ItemRef                 `json:"alsoViewed"`
	Similar        []ItemRef                 `json:"similar"`
	Method         domain.Method             `json:"method"`
	K              int                       `json:"k"`
	Results        []domain.ResolvedResult   `json:"results"`
	Metrics        *domain.SimilarityMetrics `json:"metrics,omitempty"`
	Loading        bool                      `json:"loading"`
	NotFound       bool                      `json:"notFound"`
	LoadError      string                    `json:"loadError,omitempty"`
	SimilarLoading bool                      `json:"similarLoading"`
	SimilarError   string                    `json:"similarError,omitempty"`
}

type detailState struct {
	requestedID    string
	product        *domain.Product
	carousel       *Carousel
	method         domain.Method
	k              int
	results        []domain.ResolvedResult
	metrics        *domain.SimilarityMetrics
	loading        bool
	notFound       bool
	loadErr        error
	similarLoading bool
	similarErr     error
}

// Session is the state of one viewer: the loaded page, the filter text and the
// product detail. Network calls are made without holding the session lock.
type Session struct {
	id     string
	client domain.CatalogClient
	logger logger.Logger
	store  *SnapshotStore
	pager  *PaginationController
	maxK   int

	detailGen  generation
	similarGen generation

	mu     sync.Mutex
	filter string
	detail detailState
}

// NewSession creates an empty session
func NewSession(id string, client domain.CatalogClient, log logger.Logger, config SessionConfig) *Session {
	store := NewSnapshotStore()

	method := config.DefaultMethod
	if method == "" {
		method = domain.MethodTitle
	}
	k := config.DefaultK
	if k < 1 {
		k = DefaultK
	}
	maxK := config.MaxK
	if maxK < 1 {
		maxK = DefaultMaxK
	}

	return &Session{
		id:     id,
		client: client,
		logger: log,
		store:  store,
		pager:  NewPaginationController(client, store, log, config.Pagination),
		maxK:   maxK,
		detail: detailState{
			method:  method,
			k:       k,
			results: []domain.ResolvedResult{},
		},
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the catalog snapshot currently loaded
func (s *Session) Snapshot() *domain.CatalogSnapshot {
	return s.store.Current()
}

// LoadPage loads a gallery page. perPage of 0 keeps the current page size.
func (s *Session) LoadPage(ctx context.Context, page, perPage int) (GalleryView, error) {
	if perPage == 0 {
		perPage = s.pager.PerPage()
	}
	_, err := s.pager.Load(ctx, page, perPage)
	return s.Gallery(), err
}

// EnsureLoaded loads the first page unless a page is loaded or loading
func (s *Session) EnsureLoaded(ctx context.Context) (GalleryView, error) {
	state := s.pager.State()
	if state.Loaded || state.Loading {
		return s.Gallery(), nil
	}
	return s.LoadPage(ctx, 1, 0)
}

// NextPage advances the gallery when not on the last page
func (s *Session) NextPage(ctx context.Context) (GalleryView, error) {
	_, err := s.pager.Next(ctx)
	return s.Gallery(), err
}

// PreviousPage moves the gallery back when not on the first page
func (s *Session) PreviousPage(ctx context.Context) (GalleryView, error) {
	_, err := s.pager.Previous(ctx)
	return s.Gallery(), err
}

// SetFilter sets the local filter text; no request is made
func (s *Session) SetFilter(query string) GalleryView {
	s.mu.Lock()
	s.filter = query
	s.mu.Unlock()
	return s.Gallery()
}

// Gallery returns the filtered gallery view
func (s *Session) Gallery() GalleryView {
	s.mu.Lock()
	query := s.filter
	s.mu.Unlock()

	state := s.pager.State()
	products := FilterProducts(s.store.Current(), query)

	items := make([]GalleryItem, 0, len(products))
	for _, p := range products {
		image := PlaceholderImage
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, GalleryItem{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       NormalizePrice(p.Price),
			Image:       image,
		})
	}

	return GalleryView{
		Items:     items,
		Query:     query,
		Window:    state.Window,
		Loading:   state.Loading,
		Loaded:    state.Loaded,
		LoadError: state.LoadError,
	}
}

// EnsureProduct opens id unless it is already the displayed product
func (s *Session) EnsureProduct(ctx context.Context, id string) (DetailView, error) {
	s.mu.Lock()
	displayed := s.detail.product != nil && s.detail.product.ID == id && s.detail.requestedID == id
	s.mu.Unlock()

	if displayed {
		return s.Detail(), nil
	}
	return s.OpenProduct(ctx, id)
}

// OpenProduct fetches a product for the detail view. Switching to another
// product resets the carousel and the similarity results; a refetch with a
// different image list resets the carousel only. A missing product
// becomes a not-found state; a transport failure keeps the previous detail.
func (s *Session) OpenProduct(ctx context.Context, id string) (DetailView, error) {
	if strings.TrimSpace(id) == "" {
		return s.Detail(), fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	tag := s.detailGen.next()
	s.detail.requestedID = id
	s.detail.loading = true
	s.mu.Unlock()

	product, err := s.client.FetchProduct(ctx, id)

	s.mu.Lock()
	if !s.detailGen.isCurrent(tag) {
		s.mu.Unlock()
		s.logger.Debug(sessionModule, "discarding stale product load", map[string]interface{}{
			"session": s.id,
			"product": id,
		})
		return s.Detail(), fmt.Errorf("%w: product %s", domain.ErrStaleResponse, id)
	}

	s.detail.loading = false

	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		s.detail.notFound = true
		s.detail.loadErr = nil
		s.detail.product = nil
		s.detail.carousel = nil
		s.resetResultsLocked()
	case err != nil:
		s.detail.loadErr = err
		s.logger.Warn(sessionModule, "product load failed", map[string]interface{}{
			"session": s.id,
			"product": id,
			"error":   err,
		})
	default:
		switched := s.detail.product == nil || s.detail.product.ID != product.ID
		if switched {
			s.resetResultsLocked()
		}
		if switched || !slices.Equal(s.detail.product.Images, product.Images) {
			s.detail.carousel = NewCarousel(product.ID, product.Images)
		}
		s.detail.product = product
		s.detail.notFound = false
		s.detail.loadErr = nil
	}
	s.mu.Unlock()

	return s.Detail(), err
}

// resetResultsLocked clears similarity results and invalidates in-flight similarity requests
func (s *Session) resetResultsLocked() {
	s.similarGen.next()
	s.detail.results = []domain.ResolvedResult{}
	s.detail.metrics = nil
	s.detail.similarLoading = false
	s.detail.similarErr = nil
}

// SelectMethod sets the similarity method used by FindSimilar
func (s *Session) SelectMethod(method string) error {
	m, err := domain.ParseMethod(method)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.detail.method = m
	s.mu.Unlock()
	return nil
}

// SelectK sets the number of similar products requested
func (s *Session) SelectK(k int) error {
	if k < 1 || k > s.maxK {
		return fmt.Errorf("%w: k must be between 1 and %d, got %d", domain.ErrInvalidRequest, s.maxK, k)
	}
	s.mu.Lock()
	s.detail.k = k
	s.mu.Unlock()
	return nil
}

// FindSimilar queries the similarity service for the displayed product and
// resolves the returned ids against the loaded snapshot.
func (s *Session) FindSimilar(ctx context.Context) (DetailView, error) {
	s.mu.Lock()
	if s.detail.product == nil {
		s.mu.Unlock()
		return s.Detail(), fmt.Errorf("%w: no product displayed", domain.ErrInvalidRequest)
	}

	query := domain.SimilarityQuery{
		QueryID: s.detail.product.ID,
		Method:  s.detail.method,
		K:       s.detail.k,
	}
	if err := query.Validate(); err != nil {
		s.mu.Unlock()
		return s.Detail(), err
	}

	tag := s.similarGen.next()
	s.detail.similarLoading = true
	s.mu.Unlock()

	response, err := s.client.FetchSimilar(ctx, query)

	s.mu.Lock()
	if !s.similarGen.isCurrent(tag) {
		s.mu.Unlock()
		s.logger.Debug(sessionModule, "discarding stale similarity response", map[string]interface{}{
			"session": s.id,
			"product": query.QueryID,
		})
		return s.Detail(), fmt.Errorf("%w: similar to %s", domain.ErrStaleResponse, query.QueryID)
	}

	s.detail.similarLoading = false

	if err != nil {
		s.detail.similarErr = err
		s.mu.Unlock()
		s.logger.Warn(sessionModule, "similarity request failed", map[string]interface{}{
			"session": s.id,
			"product": query.QueryID,
			"error":   err,
		})
		return s.Detail(), err
	}

	results := ResolveSimilar(response, s.store.Current())
	s.detail.results = results
	s.detail.metrics = response.Metrics
	s.detail.similarErr = nil
	s.mu.Unlock()

	s.logger.Debug(sessionModule, "similarity results resolved", map[string]interface{}{
		"session":  s.id,
		"product":  query.QueryID,
		"method":   string(query.Method),
		"k":        query.K,
		"returned": len(response.Results),
		"resolved": len(results),
	})

	return s.Detail(), nil
}

// AdvanceImage moves the carousel forward; without a displayed product it does nothing
func (s *Session) AdvanceImage() DetailView {
	s.mu.Lock()
	if s.detail.carousel != nil {
		s.detail.carousel.Advance()
	}
	s.mu.Unlock()
	return s.Detail()
}

// RetreatImage moves the carousel backward; without a displayed product it does nothing
func (s *Session) RetreatImage() DetailView {
	s.mu.Lock()
	if s.detail.carousel != nil {
		s.detail.carousel.Retreat()
	}
	s.mu.Unlock()
	return s.Detail()
}

// Detail returns the detail view of the displayed product
func (s *Session) Detail() DetailView {
	snapshot := s.store.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.detail
	view := DetailView{
		RequestedID:    d.requestedID,
		Method:         d.method,
		K:              d.k,
		Results:        d.results,
		Metrics:        d.metrics,
		Loading:        d.loading,
		NotFound:       d.notFound,
		SimilarLoading: d.similarLoading,
		AlsoBought:     []ItemRef{},
		AlsoViewed:     []ItemRef{},
		Similar:        []ItemRef{},
		Price:          NormalizePrice(""),
	}
	if d.loadErr != nil {
		view.LoadError = d.loadErr.Error()
	}
	if d.similarErr != nil {
		view.SimilarError = d.similarErr.Error()
	}

	if d.product != nil {
		p := *d.product
		view.Product = &p
		view.Price = NormalizePrice(p.Price)
		view.Breadcrumb = strings.Join(p.Categories, " > ")
		view.AlsoBought = ResolveReferences(p.RelatedAlsoBought, snapshot)
		view.AlsoViewed = ResolveReferences(p.RelatedAlsoViewed, snapshot)
		view.Similar = ResolveReferences(p.Similar, snapshot)
	}
	if d.carousel != nil {
		cv := d.carousel.View()
		view.Carousel = &cv
	}

	return view
}
