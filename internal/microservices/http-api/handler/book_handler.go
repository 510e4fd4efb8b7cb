package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bukinn/internal/apperror"
	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"
	"bukinn/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const coverField = "coverImage"

var (
	errInvalidChapterOrder = apperror.ValidationField("order", "Chapter order must be a positive integer")
	errInvalidChapters     = apperror.ValidationField("chapters", "chapters must be a JSON array")
	errInvalidCategoryIDs  = apperror.ValidationField("categoryIds", "categoryIds must be a JSON array")
)

type BookHandler struct {
	bookService   service.BookService
	maxCoverBytes int64
}

func NewBookHandler(bookService service.BookService, maxCoverBytes int64) *BookHandler {
	return &BookHandler{bookService: bookService, maxCoverBytes: maxCoverBytes}
}

func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup, authenticate, requireAdmin gin.HandlerFunc) {
	books := rg.Group("/books")
	books.GET("", h.List)
	books.GET("/search", h.Search)
	books.GET("/trending", h.Trending)
	books.GET("/suggestions", h.Suggestions)
	books.GET("/:id", h.Get)
	books.GET("/:id/chapters/:order", authenticate, h.Chapter)

	books.POST("", authenticate, requireAdmin, h.Create)
	books.PUT("/:id", authenticate, requireAdmin, h.Update)
	books.DELETE("/:id", authenticate, requireAdmin, h.Delete)
}

func (h *BookHandler) List(c *gin.Context) {
	var q dto.BookListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	books, total, err := h.bookService.List(ctx, service.BookListQuery{
		Page:       q.Page,
		Limit:      q.Limit,
		CategoryID: q.Category,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{
		"books":      books,
		"pagination": dto.NewPagination(q.Page, q.Limit, total),
	})
}

func (h *BookHandler) Search(c *gin.Context) {
	var q dto.BookSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	books, total, err := h.bookService.Search(ctx, service.BookSearchQuery{
		Query:      strings.TrimSpace(q.Q),
		Author:     strings.TrimSpace(q.Author),
		CategoryID: q.Category,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{
		"books":      books,
		"pagination": dto.NewPagination(q.Page, q.Limit, total),
	})
}

func (h *BookHandler) Trending(c *gin.Context) {
	var q dto.TrendingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	books, err := h.bookService.Trending(ctx, q.Period, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"books": books})
}

func (h *BookHandler) Suggestions(c *gin.Context) {
	var q dto.SuggestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	books, err := h.bookService.Suggestions(ctx, q.AuthorID, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"books": books})
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	book, err := h.bookService.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"book": book})
}

func (h *BookHandler) Chapter(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order < 1 {
		response.Error(c, errInvalidChapterOrder)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	chapter, err := h.bookService.Chapter(ctx, id, order)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"chapter": chapter})
}

func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if !h.bindBook(c, &req, &req.Chapters, &req.CategoryIDs) {
		return
	}
	cover, ok := h.readCover(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	book, err := h.bookService.Create(ctx, req.ToInput(), cover)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Book created successfully", gin.H{"book": book})
}

func (h *BookHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req dto.UpdateBookRequest
	if !h.bindBook(c, &req, &req.Chapters, &req.CategoryIDs) {
		return
	}
	cover, ok := h.readCover(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	book, err := h.bookService.Update(ctx, id, req.ToInput(), cover)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Book updated successfully", gin.H{"book": book})
}

func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.bookService.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Book deleted successfully", nil)
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEMultipartPOSTForm
}

// bindBook binds a JSON body directly. A multipart form is mapped field by
// field, with chapters and categoryIds decoded from JSON strings, and then
// validated as a whole.
func (h *BookHandler) bindBook(c *gin.Context, req any, chapters *[]dto.ChapterRequest, categoryIDs *[]string) bool {
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(req); err != nil {
			response.BindError(c, err)
			return false
		}
		return true
	}

	if err := c.Request.ParseMultipartForm(h.maxCoverBytes + 1<<20); err != nil {
		response.BindError(c, err)
		return false
	}
	form := c.Request.MultipartForm.Value
	if err := binding.MapFormWithTag(req, form, "form"); err != nil {
		response.BindError(c, err)
		return false
	}

	if raw := c.PostForm("chapters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), chapters); err != nil {
			response.Error(c, errInvalidChapters)
			return false
		}
	}
	if ids := form["categoryIds"]; len(ids) == 1 && strings.HasPrefix(strings.TrimSpace(ids[0]), "[") {
		*categoryIDs = nil
		if err := json.Unmarshal([]byte(ids[0]), categoryIDs); err != nil {
			response.Error(c, errInvalidCategoryIDs)
			return false
		}
	}

	if err := binding.Validator.ValidateStruct(req); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}

// readCover returns the optional uploaded cover. Size and type checks on
// the content happen in the storage layer.
func (h *BookHandler) readCover(c *gin.Context) (*service.CoverFile, bool) {
	if !isMultipart(c) {
		return nil, true
	}
	header, err := c.FormFile(coverField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		response.BindError(c, err)
		return nil, false
	}
	if header.Size > h.maxCoverBytes {
		response.Error(c, storage.ErrCoverTooLarge)
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, apperror.Internal(err))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxCoverBytes+1))
	if err != nil {
		response.Error(c, apperror.Internal(err))
		return nil, false
	}
	return &service.CoverFile{Name: header.Filename, Data: data}, true
}
