package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotegen/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotegen/internal/app"
	"github.com/jsamuelsen/quotegen/internal/domain"
)

// importFormField is the multipart field carrying an uploaded quotes file.
const importFormField = "file"

// QuoteStore is the store behavior the quote endpoints need.
// *app.QuoteStore satisfies it.
type QuoteStore interface {
	FilterByCategory(category string) []domain.Quote
	Categories() []string
	Add(ctx context.Context, quote domain.Quote) (domain.Quote, error)
	ImportJSON(ctx context.Context, r io.Reader) (int, error)
	Export(ctx context.Context, w io.Writer) error
	ShowRandom(ctx context.Context, sessionID, category string) (domain.Quote, error)
	LastSelectedCategory(ctx context.Context) string
	SetLastSelectedCategory(ctx context.Context, category string) error
	LastViewedQuote(ctx context.Context, sessionID string) (domain.Quote, bool)
}

// QuoteHandler handles quote, category and session endpoints.
type QuoteHandler struct {
	store QuoteStore
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(store QuoteStore) *QuoteHandler {
	return &QuoteHandler{store: store}
}

// ListQuotes handles GET /api/v1/quotes.
// The optional category filters exactly; "all" or empty lists everything.
// Without limit or cursor the whole collection is returned in one page.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter"
// @Param limit query int false "Page size (1-100)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	scope := req.Category
	if scope == "" {
		scope = domain.AllCategories
	}

	quotes := dto.FromQuotes(h.store.FilterByCategory(scope))

	if !req.Paginated() {
		c.JSON(http.StatusOK, dto.AllItems(quotes))
		return
	}

	page, err := dto.Paginate(quotes, req.PaginationRequest, scope)
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, page)
}

// AddQuote handles POST /api/v1/quotes.
// Fields are trimmed and the category lower-cased before storing.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.QuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	quote, err := h.store.Add(c.Request.Context(), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromQuote(quote))
}

// RandomQuote handles GET /api/v1/quotes/random.
// An absent category uses the last selected one. The selection is remembered
// for the session. When nothing matches, a 404 carries the placeholder quote.
//
// @Summary Show a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var req dto.RandomQuoteRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	quote, err := h.store.ShowRandom(c.Request.Context(), middleware.GetSessionID(c), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromQuote(quote))
}

// ImportQuotes handles POST /api/v1/quotes/import.
// The body is either a raw JSON array or a multipart form with a "file" field.
// Anything but an array of objects is rejected and nothing is imported.
//
// @Summary Import quotes
// @Tags quotes
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	body, closeBody, err := importBody(c)
	if err != nil {
		dto.RespondWithBindError(c, err)
		return
	}
	defer closeBody()

	n, err := h.store.ImportJSON(c.Request.Context(), body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ImportResponse{Imported: n, Message: app.MsgQuotesImported})
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, func() {}, nil
	}

	header, err := c.FormFile(importFormField)
	if err != nil {
		return nil, nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return file, func() { _ = file.Close() }, nil
}

// ExportQuotes handles GET /api/v1/quotes/export.
// The full collection is sent as an indented JSON attachment.
//
// @Summary Export quotes
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	var buf bytes.Buffer

	if err := h.store.Export(c.Request.Context(), &buf); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="quotes.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// ListCategories handles GET /api/v1/categories.
//
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/categories [get]
func (h *QuoteHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.categoriesResponse(c.Request.Context()))
}

// SelectCategory handles PUT /api/v1/categories/selected.
// The category is stored as given and becomes the default random filter.
//
// @Summary Select a category
// @Tags categories
// @Accept json
// @Produce json
// @Param selection body dto.SelectCategoryRequest true "Category"
// @Success 200 {object} dto.CategoriesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/categories/selected [put]
func (h *QuoteHandler) SelectCategory(c *gin.Context) {
	var req dto.SelectCategoryRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	ctx := c.Request.Context()

	if err := h.store.SetLastSelectedCategory(ctx, req.Category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.categoriesResponse(ctx))
}

func (h *QuoteHandler) categoriesResponse(ctx context.Context) dto.CategoriesResponse {
	categories := h.store.Categories()
	if categories == nil {
		categories = []string{}
	}

	return dto.CategoriesResponse{
		Categories: categories,
		Selected:   h.store.LastSelectedCategory(ctx),
	}
}

// LastViewed handles GET /api/v1/session/last-viewed.
//
// @Summary Last quote shown to this session
// @Tags session
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/session/last-viewed [get]
func (h *QuoteHandler) LastViewed(c *gin.Context) {
	quote, ok := h.store.LastViewedQuote(c.Request.Context(), middleware.GetSessionID(c))
	if !ok {
		dto.RespondWithCode(c, dto.ErrorCodeNotFound, "no quote viewed in this session")
		return
	}

	c.JSON(http.StatusOK, dto.FromQuote(quote))
}

// RegisterQuoteRoutes registers quote, category and session routes on rg.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.POST("/import", h.ImportQuotes)
	quotes.GET("/export", h.ExportQuotes)

	categories := rg.Group("/categories")
	categories.GET("", h.ListCategories)
	categories.PUT("/selected", h.SelectCategory)

	rg.GET("/session/last-viewed", h.LastViewed)
}
