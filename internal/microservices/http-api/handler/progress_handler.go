package handler

import (
	"net/http"

	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/middleware"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService service.ProgressService
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// RegisterRoutes registers the progress routes; all of them need a caller.
func (h *ProgressHandler) RegisterRoutes(rg *gin.RouterGroup, authenticate gin.HandlerFunc) {
	progress := rg.Group("/progress", authenticate)
	progress.POST("", h.Update)
	progress.GET("", h.List)
	progress.GET("/:bookId", h.Get)
}

func (h *ProgressHandler) Update(c *gin.Context) {
	var req dto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	progress, err := h.progressService.Advance(ctx, middleware.UserID(c), req.BookID, req.ChapterOrder)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Progress updated successfully", gin.H{"progress": progress})
}

func (h *ProgressHandler) Get(c *gin.Context) {
	var p dto.BookIDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	progress, err := h.progressService.Get(ctx, middleware.UserID(c), p.BookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"progress": progress})
}

func (h *ProgressHandler) List(c *gin.Context) {
	var q dto.ProgressListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.progressService.ListAll(ctx, middleware.UserID(c), q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{
		"progress":   list,
		"pagination": dto.NewPagination(q.Page, q.Limit, total),
	})
}
