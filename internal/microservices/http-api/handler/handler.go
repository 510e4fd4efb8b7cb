package handler

import (
	"context"
	"time"

	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/response"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

// requestContext bounds a handler's work to requestTimeout.
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// bindID validates the :id path parameter and answers 400 when it is not a uuid.
func bindID(c *gin.Context) (string, bool) {
	var p dto.IDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.BindError(c, err)
		return "", false
	}
	return p.ID, true
}
