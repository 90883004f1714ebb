package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(client *MockCatalogClient) *Session {
	return NewSession("test-session", client, logger.NewNop(), SessionConfig{
		Pagination:    PaginationConfig{PerPage: 2, MaxPerPage: 10},
		DefaultMethod: domain.MethodTitle,
		DefaultK:      5,
		MaxK:          20,
	})
}

func TestSession_Defaults(t *testing.T) {
	s := NewSession("id", NewMockCatalogClient(), logger.NewNop(), SessionConfig{})

	view := s.Detail()
	assert.Equal(t, domain.MethodTitle, view.Method)
	assert.Equal(t, DefaultK, view.K)
	assert.Equal(t, DefaultPerPage, s.Gallery().Window.PerPage)
	assert.NotNil(t, view.Results)
	assert.Equal(t, PriceNotAvailable, view.Price.Value)
}

func TestSession_Gallery(t *testing.T) {
	ctx := context.Background()
	client := NewMockCatalogClient()
	kettle := product("K1", "kettle.jpg")
	kettle.Title = "Electric Kettle"
	cup := product("C1")
	cup.Title = "Tea Cup"
	cup.Price = "about ten dollars"
	client.setPage(1, 5, kettle, cup)
	client.setPage(2, 5, product("P3"), product("P4"))
	client.setPage(3, 5, product("P5"))

	s := newTestSession(client)

	t.Run("first visit loads page one", func(t *testing.T) {
		view, err := s.EnsureLoaded(ctx)

		require.NoError(t, err)
		require.Len(t, view.Items, 2)
		assert.Equal(t, 3, view.Window.PageCount)
		assert.Equal(t, "kettle.jpg", view.Items[0].Image)
		assert.Equal(t, PlaceholderImage, view.Items[1].Image)
		assert.Equal(t, "$10.00", view.Items[0].Price.Value)
		assert.Equal(t, PriceNotAvailable, view.Items[1].Price.Value)
	})

	t.Run("later visits do not refetch", func(t *testing.T) {
		_, err := s.EnsureLoaded(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, client.fetchPageCall)
	})

	t.Run("filter narrows without a request", func(t *testing.T) {
		view := s.SetFilter("kettle")

		require.Len(t, view.Items, 1)
		assert.Equal(t, "K1", view.Items[0].ID)
		assert.Equal(t, "kettle", view.Query)
		assert.Equal(t, 1, client.fetchPageCall)
	})

	t.Run("filter persists across page loads", func(t *testing.T) {
		view, err := s.NextPage(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, view.Window.Page)
		assert.Equal(t, "kettle", view.Query)
		assert.Empty(t, view.Items)

		view = s.SetFilter("")
		assert.Len(t, view.Items, 2)
	})

	t.Run("previous returns to page one", func(t *testing.T) {
		view, err := s.PreviousPage(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, view.Window.Page)
		assert.Equal(t, 1, view.Window.From)
		assert.Equal(t, 2, view.Window.To)
	})

	t.Run("load page keeps the page size when none is given", func(t *testing.T) {
		view, err := s.LoadPage(ctx, 3, 0)

		require.NoError(t, err)
		assert.Equal(t, 2, view.Window.PerPage)
		assert.Equal(t, 5, view.Window.From)
		assert.Equal(t, 5, view.Window.To)
	})
}

func TestSession_OpenProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a product with a fresh carousel", func(t *testing.T) {
		client := NewMockCatalogClient()
		p := product("P1", "a.jpg", "b.jpg")
		p.Categories = []string{"Home", "Kitchen", "Kettles"}
		p.RelatedAlsoBought = []string{"R1", "R2"}
		client.setProduct(p)
		client.setPage(1, 1, product("R1"))
		s := newTestSession(client)
		_, err := s.LoadPage(ctx, 1, 0)
		require.NoError(t, err)

		view, err := s.OpenProduct(ctx, "P1")

		require.NoError(t, err)
		require.NotNil(t, view.Product)
		assert.Equal(t, "P1", view.Product.ID)
		assert.Equal(t, "Home > Kitchen > Kettles", view.Breadcrumb)
		require.NotNil(t, view.Carousel)
		assert.Equal(t, 0, view.Carousel.Index)
		assert.True(t, view.Carousel.ShowControls)
		require.Len(t, view.AlsoBought, 2)
		assert.True(t, view.AlsoBought[0].Resolved)
		assert.False(t, view.AlsoBought[1].Resolved)
		assert.False(t, view.Loading)
	})

	t.Run("rejects a blank id", func(t *testing.T) {
		client := NewMockCatalogClient()
		s := newTestSession(client)

		_, err := s.OpenProduct(ctx, "  ")

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.Equal(t, 0, client.productCalls)
	})

	t.Run("missing product becomes not found", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("P1", "a.jpg"))
		s := newTestSession(client)
		_, err := s.OpenProduct(ctx, "P1")
		require.NoError(t, err)

		view, err := s.OpenProduct(ctx, "GONE")

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.True(t, view.NotFound)
		assert.Nil(t, view.Product)
		assert.Nil(t, view.Carousel)
		assert.Equal(t, "GONE", view.RequestedID)
	})

	t.Run("transport failure keeps the previous product", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("P1", "a.jpg"))
		s := newTestSession(client)
		_, err := s.OpenProduct(ctx, "P1")
		require.NoError(t, err)

		client.productError = errors.New("connection reset")
		view, err := s.OpenProduct(ctx, "P2")

		require.Error(t, err)
		require.NotNil(t, view.Product)
		assert.Equal(t, "P1", view.Product.ID)
		assert.Equal(t, "connection reset", view.LoadError)
		assert.False(t, view.NotFound)
	})

	t.Run("switching product resets carousel and results", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("P1", "a.jpg", "b.jpg", "c.jpg"))
		client.setProduct(product("P2", "d.jpg", "e.jpg"))
		client.setPage(1, 1, product("S1"))
		client.similar = &domain.SimilarityResponse{Results: hits("S1")}
		s := newTestSession(client)
		_, err := s.LoadPage(ctx, 1, 0)
		require.NoError(t, err)

		_, err = s.OpenProduct(ctx, "P1")
		require.NoError(t, err)
		s.AdvanceImage()
		s.AdvanceImage()
		view, err := s.FindSimilar(ctx)
		require.NoError(t, err)
		require.Len(t, view.Results, 1)
		require.Equal(t, 2, view.Carousel.Index)

		view, err = s.OpenProduct(ctx, "P2")

		require.NoError(t, err)
		assert.Equal(t, "P2", view.Carousel.ProductID)
		assert.Equal(t, 0, view.Carousel.Index)
		assert.Empty(t, view.Results)
		assert.Nil(t, view.Metrics)
	})

	t.Run("reopening the same product keeps the carousel", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("P1", "a.jpg", "b.jpg"))
		s := newTestSession(client)
		_, err := s.OpenProduct(ctx, "P1")
		require.NoError(t, err)
		s.AdvanceImage()

		view, err := s.OpenProduct(ctx, "P1")

		require.NoError(t, err)
		assert.Equal(t, 1, view.Carousel.Index)
	})

	t.Run("refetch with new images restarts the carousel", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("A", "a1.jpg", "a2.jpg"))
		client.setPage(1, 1, product("S1"))
		client.similar = &domain.SimilarityResponse{Results: hits("S1")}
		s := newTestSession(client)
		_, err := s.LoadPage(ctx, 1, 0)
		require.NoError(t, err)
		_, err = s.OpenProduct(ctx, "A")
		require.NoError(t, err)
		_, err = s.FindSimilar(ctx)
		require.NoError(t, err)
		s.AdvanceImage()

		// A failed load of another product leaves A displayed but no longer requested
		client.productError = errors.New("connection reset")
		_, err = s.OpenProduct(ctx, "B")
		require.Error(t, err)
		client.productError = nil
		client.setProduct(product("A", "only.jpg"))

		view, err := s.EnsureProduct(ctx, "A")

		require.NoError(t, err)
		assert.Equal(t, []string{"only.jpg"}, view.Product.Images)
		require.NotNil(t, view.Carousel)
		assert.Equal(t, 0, view.Carousel.Index)
		assert.Equal(t, 1, view.Carousel.Count)
		assert.Equal(t, "only.jpg", view.Carousel.Image)
		assert.Len(t, view.Results, 1, "same product keeps its results")
	})

	t.Run("refetch with the same images keeps the position", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("A", "a1.jpg", "a2.jpg", "a3.jpg"))
		s := newTestSession(client)
		_, err := s.OpenProduct(ctx, "A")
		require.NoError(t, err)
		s.AdvanceImage()
		s.AdvanceImage()

		view, err := s.OpenProduct(ctx, "A")

		require.NoError(t, err)
		assert.Equal(t, 2, view.Carousel.Index)
		assert.Equal(t, "a3.jpg", view.Carousel.Image)
	})

	t.Run("ensure product does not refetch the displayed product", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setProduct(product("P1"))
		s := newTestSession(client)

		_, err := s.EnsureProduct(ctx, "P1")
		require.NoError(t, err)
		_, err = s.EnsureProduct(ctx, "P1")
		require.NoError(t, err)

		assert.Equal(t, 1, client.productCalls)
	})
}

func TestSession_OpenProduct_DiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	client := NewMockCatalogClient()
	client.setProduct(product("SLOW"))
	client.setProduct(product("FAST"))
	gate := make(chan struct{})
	client.productGates["SLOW"] = gate
	s := newTestSession(client)

	first := make(chan error, 1)
	go func() {
		_, err := s.OpenProduct(ctx, "SLOW")
		first <- err
	}()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.productCalls == 1
	}, time.Second, 5*time.Millisecond)

	view, err := s.OpenProduct(ctx, "FAST")
	require.NoError(t, err)
	assert.Equal(t, "FAST", view.Product.ID)

	close(gate)

	assert.ErrorIs(t, <-first, domain.ErrStaleResponse)
	assert.Equal(t, "FAST", s.Detail().Product.ID)
}

func TestSession_AdvanceWithoutProduct(t *testing.T) {
	s := newTestSession(NewMockCatalogClient())

	view := s.AdvanceImage()
	assert.Nil(t, view.Carousel)

	view = s.RetreatImage()
	assert.Nil(t, view.Carousel)
}

func TestSession_Carousel(t *testing.T) {
	ctx := context.Background()
	client := NewMockCatalogClient()
	client.setProduct(product("P1", "x", "y", "z"))
	s := newTestSession(client)
	_, err := s.OpenProduct(ctx, "P1")
	require.NoError(t, err)

	view := s.RetreatImage()
	assert.Equal(t, 2, view.Carousel.Index)
	assert.Equal(t, "z", view.Carousel.Image)

	s.AdvanceImage()
	view = s.AdvanceImage()
	assert.Equal(t, 1, view.Carousel.Index)
}

func TestSession_Selection(t *testing.T) {
	s := newTestSession(NewMockCatalogClient())

	require.NoError(t, s.SelectMethod("description"))
	assert.Equal(t, domain.MethodDescription, s.Detail().Method)

	require.NoError(t, s.SelectMethod("pstd"))
	assert.Equal(t, domain.MethodTitleDescription, s.Detail().Method)

	assert.ErrorIs(t, s.SelectMethod("cosine"), domain.ErrInvalidMethod)
	assert.Equal(t, domain.MethodTitleDescription, s.Detail().Method)

	require.NoError(t, s.SelectK(20))
	assert.Equal(t, 20, s.Detail().K)

	assert.ErrorIs(t, s.SelectK(0), domain.ErrInvalidRequest)
	assert.ErrorIs(t, s.SelectK(21), domain.ErrInvalidRequest)
	assert.Equal(t, 20, s.Detail().K)
}

func TestSession_FindSimilar(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a displayed product", func(t *testing.T) {
		s := newTestSession(NewMockCatalogClient())

		_, err := s.FindSimilar(ctx)

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("resolves results against the loaded page", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setPage(1, 2, product("A1"), product("A3"))
		client.setProduct(product("Q"))
		client.similar = &domain.SimilarityResponse{
			Results: []domain.SimilarityHit{
				{ID: "A1", Score: score(0.9), IsGroundTruth: flag(true)},
				{ID: "A2"},
				{ID: "A3"},
			},
			Metrics: &domain.SimilarityMetrics{PrecisionAtK: 0.4},
		}
		s := newTestSession(client)
		_, err := s.LoadPage(ctx, 1, 0)
		require.NoError(t, err)
		_, err = s.OpenProduct(ctx, "Q")
		require.NoError(t, err)
		require.NoError(t, s.SelectMethod("psd"))
		require.NoError(t, s.SelectK(3))

		view, err := s.FindSimilar(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.SimilarityQuery{QueryID: "Q", Method: domain.MethodDescription, K: 3}, client.lastQuery)
		require.Len(t, view.Results, 2)
		assert.Equal(t, "A1", view.Results[0].Product.ID)
		assert.Equal(t, 0, view.Results[0].Rank)
		assert.True(t, view.Results[0].IsGroundTruth)
		assert.Equal(t, "A3", view.Results[1].Product.ID)
		assert.Equal(t, 1, view.Results[1].Rank)
		require.NotNil(t, view.Metrics)
		assert.InDelta(t, 0.4, view.Metrics.PrecisionAtK, 1e-9)
		assert.False(t, view.SimilarLoading)
	})

	t.Run("failure keeps previous results", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setPage(1, 1, product("A1"))
		client.setProduct(product("Q"))
		client.similar = &domain.SimilarityResponse{Results: hits("A1")}
		s := newTestSession(client)
		_, err := s.LoadPage(ctx, 1, 0)
		require.NoError(t, err)
		_, err = s.OpenProduct(ctx, "Q")
		require.NoError(t, err)
		_, err = s.FindSimilar(ctx)
		require.NoError(t, err)

		client.similarError = domain.ErrCatalogAPIFailure
		view, err := s.FindSimilar(ctx)

		assert.ErrorIs(t, err, domain.ErrCatalogAPIFailure)
		assert.Len(t, view.Results, 1)
		assert.NotEmpty(t, view.SimilarError)
	})

	t.Run("response for a previous product is discarded", func(t *testing.T) {
		client := NewMockCatalogClient()
		client.setPage(1, 1, product("A1"))
		client.setProduct(product("Q1"))
		client.setProduct(product("Q2"))
		client.similar = &domain.SimilarityResponse{Results: hits("A1")}
		s := newTestSession(client)
		_, err := s.LoadPage(ctx, 1, 0)
		require.NoError(t, err)
		_, err = s.OpenProduct(ctx, "Q1")
		require.NoError(t, err)

		gate := make(chan struct{})
		client.mu.Lock()
		client.similarGate = gate
		client.mu.Unlock()

		done := make(chan error, 1)
		go func() {
			_, err := s.FindSimilar(ctx)
			done <- err
		}()
		require.Eventually(t, func() bool { return s.Detail().SimilarLoading }, time.Second, 5*time.Millisecond)

		_, err = s.OpenProduct(ctx, "Q2")
		require.NoError(t, err)
		close(gate)

		assert.ErrorIs(t, <-done, domain.ErrStaleResponse)
		view := s.Detail()
		assert.Equal(t, "Q2", view.Product.ID)
		assert.Empty(t, view.Results)
	})
}
