package handler

import (
	"net/http"
	"strings"

	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup, authenticate, requireAdmin gin.HandlerFunc) {
	categories := rg.Group("/categories")
	categories.GET("", h.List)
	categories.GET("/:id", h.Get)

	categories.POST("", authenticate, requireAdmin, h.Create)
	categories.PUT("/:id", authenticate, requireAdmin, h.Update)
	categories.DELETE("/:id", authenticate, requireAdmin, h.Delete)
}

func (h *CategoryHandler) List(c *gin.Context) {
	var q dto.CatalogListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	categories, total, err := h.categoryService.List(ctx, strings.TrimSpace(q.Q), q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{
		"categories": categories,
		"pagination": dto.NewPagination(q.Page, q.Limit, total),
	})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.categoryService.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"category": category})
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.categoryService.Create(ctx, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Category created successfully", gin.H{"category": category})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.categoryService.Update(ctx, id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Category updated successfully", gin.H{"category": category})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.categoryService.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Category deleted successfully", nil)
}
