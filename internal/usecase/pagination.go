package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
)

const paginationModule = "pagination"

// Default page size used when no configuration is given
const DefaultPerPage = 50

// PageWindow describes the current page against the remote total
type PageWindow struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"perPage"`
	Total       int  `json:"total"`
	PageCount   int  `json:"pageCount"`
	From        int  `json:"from"` // first displayed row, 1-based
	To          int  `json:"to"`   // last displayed row, inclusive
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// PageCount returns ceil(total/perPage), never less than 1
func PageCount(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// NewPageWindow computes the displayed row range and boundary flags for a page
func NewPageWindow(page, perPage, total int) PageWindow {
	if total < 0 {
		total = 0
	}
	pageCount := PageCount(total, perPage)

	return PageWindow{
		Page:        page,
		PerPage:     perPage,
		Total:       total,
		PageCount:   pageCount,
		From:        (page-1)*perPage + 1,
		To:          min(page*perPage, total),
		HasPrevious: page > 1,
		HasNext:     page < pageCount,
	}
}

// PaginationState is the read-only view of the controller
type PaginationState struct {
	Window    PageWindow `json:"window"`
	Loading   bool       `json:"loading"`
	Loaded    bool       `json:"loaded"`
	LoadError string     `json:"loadError,omitempty"`
}

// PaginationConfig holds configuration for the pagination controller
type PaginationConfig struct {
	PerPage    int
	MaxPerPage int
}

// PaginationController loads pages of the remote collection into a SnapshotStore.
// Only the completion of the most recently started load is applied.
type PaginationController struct {
	client     domain.CatalogClient
	store      *SnapshotStore
	logger     logger.Logger
	maxPerPage int

	gen generation

	mu      sync.Mutex
	page    int
	perPage int
	total   int
	loading bool
	loaded  bool
	loadErr error
}

// NewPaginationController creates a controller positioned on page 1
func NewPaginationController(
	client domain.CatalogClient,
	store *SnapshotStore,
	log logger.Logger,
	config PaginationConfig,
) *PaginationController {
	perPage := config.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	return &PaginationController{
		client:     client,
		store:      store,
		logger:     log,
		maxPerPage: config.MaxPerPage,
		page:       1,
		perPage:    perPage,
	}
}

// Load fetches a page and replaces the snapshot on success.
// A failed load, or a page beyond the reported total, keeps the previous snapshot and page. A completion that was
// superseded by a newer Load is discarded and reported as ErrStaleResponse.
func (c *PaginationController) Load(ctx context.Context, page, perPage int) (PageWindow, error) {
	if page < 1 || perPage < 1 {
		return c.State().Window, fmt.Errorf("%w: page and per_page must be positive", domain.ErrInvalidRequest)
	}
	if c.maxPerPage > 0 && perPage > c.maxPerPage {
		return c.State().Window, fmt.Errorf("%w: per_page exceeds %d", domain.ErrInvalidRequest, c.maxPerPage)
	}

	c.mu.Lock()
	tag := c.gen.next()
	c.loading = true
	c.mu.Unlock()

	result, err := c.client.FetchProducts(ctx, page, perPage)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gen.isCurrent(tag) {
		c.logger.Debug(paginationModule, "discarding stale page load", map[string]interface{}{
			"page":       page,
			"generation": tag,
		})
		return c.windowLocked(), fmt.Errorf("%w: page %d", domain.ErrStaleResponse, page)
	}

	c.loading = false

	if err != nil {
		c.loadErr = err
		c.logger.Warn(paginationModule, "page load failed", map[string]interface{}{
			"page":  page,
			"error": err,
		})
		return c.windowLocked(), err
	}

	total := max(result.Total, 0)
	if pageCount := PageCount(total, perPage); page > pageCount {
		c.loadErr = fmt.Errorf("%w: page %d exceeds page count %d", domain.ErrInvalidRequest, page, pageCount)
		c.logger.Warn(paginationModule, "page out of range", map[string]interface{}{
			"page":       page,
			"page_count": pageCount,
			"total":      total,
		})
		return c.windowLocked(), c.loadErr
	}

	c.store.replace(domain.NewCatalogSnapshot(result.Products))
	c.page = page
	c.perPage = perPage
	c.total = total
	c.loaded = true
	c.loadErr = nil

	return c.windowLocked(), nil
}

// Next loads the following page; it is a no-op on the last page
func (c *PaginationController) Next(ctx context.Context) (PageWindow, error) {
	c.mu.Lock()
	w := c.windowLocked()
	c.mu.Unlock()

	if !w.HasNext {
		return w, nil
	}
	return c.Load(ctx, w.Page+1, w.PerPage)
}

// Previous loads the preceding page; it is a no-op on the first page
func (c *PaginationController) Previous(ctx context.Context) (PageWindow, error) {
	c.mu.Lock()
	w := c.windowLocked()
	c.mu.Unlock()

	if !w.HasPrevious {
		return w, nil
	}
	return c.Load(ctx, min(w.Page-1, w.PageCount), w.PerPage)
}

// State returns the current window and load status
func (c *PaginationController) State() PaginationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := PaginationState{
		Window:  c.windowLocked(),
		Loading: c.loading,
		Loaded:  c.loaded,
	}
	if c.loadErr != nil {
		state.LoadError = c.loadErr.Error()
	}
	return state
}

// PerPage returns the page size currently in effect
func (c *PaginationController) PerPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perPage
}

func (c *PaginationController) windowLocked() PageWindow {
	return NewPageWindow(c.page, c.perPage, c.total)
}
