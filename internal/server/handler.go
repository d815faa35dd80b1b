package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/langs"
)

const (
	msgQueryMissing     = "Search query not provided"
	msgTranslateMissing = "Text or target language not provided"
)

// Handler serves the search API.
type Handler struct {
	service *Service
	catalog *langs.Catalog
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, catalog *langs.Catalog) *Handler {
	if catalog == nil {
		catalog = langs.Default()
	}
	return &Handler{service: service, catalog: catalog}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/languages", h.Languages)
	r.POST("/search", h.Search)
	r.POST("/translate", h.Translate)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Languages lists the catalog in display order.
func (h *Handler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": h.catalog.All()})
}

// Search answers POST /search with one page of results.
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	l := zerolog.Ctx(ctx)

	var req client.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid search request")
		c.JSON(http.StatusBadRequest, client.ErrorResponse{Error: msgQueryMissing})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, client.ErrorResponse{Error: msgQueryMissing})
		return
	}

	resp, err := h.service.Search(ctx, req.Query, req.Languages, req.Page)
	if err != nil {
		l.Error().Err(err).Str("query", req.Query).Msg("search failed")
		c.JSON(http.StatusInternalServerError, client.ErrorResponse{Error: "search failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Translate answers POST /translate.
func (h *Handler) Translate(c *gin.Context) {
	ctx := c.Request.Context()
	l := zerolog.Ctx(ctx)

	var req client.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" || req.TargetLang == "" {
		c.JSON(http.StatusBadRequest, client.ErrorResponse{Error: msgTranslateMissing})
		return
	}

	translated, err := h.service.Translate(ctx, req.Text, req.TargetLang)
	switch {
	case errors.Is(err, errTranslationDisabled):
		c.JSON(http.StatusServiceUnavailable, client.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		l.Error().Err(err).Str("target_lang", req.TargetLang).Msg("translation failed")
		c.JSON(http.StatusBadGateway, client.ErrorResponse{Error: "translation failed"})
		return
	}

	c.JSON(http.StatusOK, client.TranslateResponse{TranslatedText: &translated})
}
