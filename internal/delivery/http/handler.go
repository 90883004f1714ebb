package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
	"github.com/lshcatalog/viewer/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions *usecase.SessionService
	logger   logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions *usecase.SessionService, log logger.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   log,
	}
}

type loadPageRequest struct {
	Page    int `json:"page" binding:"required,min=1"`
	PerPage int `json:"per_page" binding:"omitempty,min=1"`
}

type filterRequest struct {
	Query string `json:"query"`
}

type similarityRequest struct {
	Method *string `json:"method"`
	K      *int    `json:"k"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lshcatalog-viewer",
		"version": "1.0.0",
	})
}

// GetGallery returns the gallery view, loading the first page on the first visit
func (h *Handler) GetGallery(c *gin.Context) {
	session := currentSession(c)
	view, err := session.EnsureLoaded(c.Request.Context())
	h.respond(c, view, err)
}

// LoadPage loads a specific gallery page
func (h *Handler) LoadPage(c *gin.Context) {
	session := currentSession(c)

	var req loadPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, session.Gallery(), invalidRequest(err))
		return
	}

	view, err := session.LoadPage(c.Request.Context(), req.Page, req.PerPage)
	h.respond(c, view, err)
}

// NextPage moves the gallery to the following page
func (h *Handler) NextPage(c *gin.Context) {
	view, err := currentSession(c).NextPage(c.Request.Context())
	h.respond(c, view, err)
}

// PreviousPage moves the gallery to the preceding page
func (h *Handler) PreviousPage(c *gin.Context) {
	view, err := currentSession(c).PreviousPage(c.Request.Context())
	h.respond(c, view, err)
}

// SetFilter updates the local filter over the loaded page
func (h *Handler) SetFilter(c *gin.Context) {
	session := currentSession(c)

	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, session.Gallery(), invalidRequest(err))
		return
	}

	c.JSON(http.StatusOK, session.SetFilter(req.Query))
}

// GetProduct returns the detail view, fetching the product when it is not displayed
func (h *Handler) GetProduct(c *gin.Context) {
	view, err := currentSession(c).EnsureProduct(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// AdvanceImage moves the product carousel forward
func (h *Handler) AdvanceImage(c *gin.Context) {
	session := currentSession(c)
	if view, err := session.EnsureProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respond(c, view, err)
		return
	}
	c.JSON(http.StatusOK, session.AdvanceImage())
}

// RetreatImage moves the product carousel backward
func (h *Handler) RetreatImage(c *gin.Context) {
	session := currentSession(c)
	if view, err := session.EnsureProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respond(c, view, err)
		return
	}
	c.JSON(http.StatusOK, session.RetreatImage())
}

// SelectSimilarity updates the method and k used for similarity queries
func (h *Handler) SelectSimilarity(c *gin.Context) {
	session := currentSession(c)
	view, err := session.EnsureProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respond(c, view, err)
		return
	}

	if err := h.applySelection(c, session); err != nil {
		h.respond(c, session.Detail(), err)
		return
	}

	c.JSON(http.StatusOK, session.Detail())
}

// FindSimilar runs a similarity query for the product and resolves the results
func (h *Handler) FindSimilar(c *gin.Context) {
	session := currentSession(c)
	view, err := session.EnsureProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respond(c, view, err)
		return
	}

	if err := h.applySelection(c, session); err != nil {
		h.respond(c, session.Detail(), err)
		return
	}

	view, err = session.FindSimilar(c.Request.Context())
	h.respond(c, view, err)
}

// EndSession discards the caller's session
func (h *Handler) EndSession(c *gin.Context) {
	h.sessions.End(currentSession(c).ID())
	c.Status(http.StatusNoContent)
}

// applySelection reads an optional {method, k} body into the session
func (h *Handler) applySelection(c *gin.Context, session *usecase.Session) error {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return invalidRequest(err)
	}

	if req.Method != nil {
		if err := session.SelectMethod(*req.Method); err != nil {
			return err
		}
	}
	if req.K != nil {
		if err := session.SelectK(*req.K); err != nil {
			return err
		}
	}
	return nil
}

// respond writes view on success, or the error together with the retained view
func (h *Handler) respond(c *gin.Context, view interface{}, err error) {
	if err == nil {
		c.JSON(http.StatusOK, view)
		return
	}

	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"view":  view,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidMethod):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCatalogAPIFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func invalidRequest(err error) error {
	return errors.Join(domain.ErrInvalidRequest, err)
}
