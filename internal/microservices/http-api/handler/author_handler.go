package handler

import (
	"net/http"
	"strings"

	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthorHandler struct {
	authorService service.AuthorService
}

func NewAuthorHandler(authorService service.AuthorService) *AuthorHandler {
	return &AuthorHandler{authorService: authorService}
}

func (h *AuthorHandler) RegisterRoutes(rg *gin.RouterGroup, authenticate, requireAdmin gin.HandlerFunc) {
	authors := rg.Group("/authors")
	authors.GET("", h.List)
	authors.GET("/:id", h.Get)

	authors.POST("", authenticate, requireAdmin, h.Create)
	authors.PUT("/:id", authenticate, requireAdmin, h.Update)
	authors.DELETE("/:id", authenticate, requireAdmin, h.Delete)
}

func (h *AuthorHandler) List(c *gin.Context) {
	var q dto.CatalogListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	authors, total, err := h.authorService.List(ctx, strings.TrimSpace(q.Q), q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{
		"authors":    authors,
		"pagination": dto.NewPagination(q.Page, q.Limit, total),
	})
}

func (h *AuthorHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	author, err := h.authorService.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"author": author})
}

func (h *AuthorHandler) Create(c *gin.Context) {
	var req dto.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	author, err := h.authorService.Create(ctx, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Author created successfully", gin.H{"author": author})
}

func (h *AuthorHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req dto.UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	author, err := h.authorService.Update(ctx, id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Author updated successfully", gin.H{"author": author})
}

func (h *AuthorHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.authorService.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Author deleted successfully", nil)
}
