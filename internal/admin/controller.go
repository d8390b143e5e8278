package admin

import (
	"net/http"

	"billetter/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// POST /api/reset
func (c *Controller) Reset(ctx *gin.Context) {
	report, err := c.service.Reset(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Все тестовые данные успешно сброшены",
		"details": report,
	})
}
