package response

import (
	"billetter/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a service error through the apperror taxonomy and
// writes the {message} payload the API contract promises.
func RespondError(c *gin.Context, err error) {
	code := apperror.HTTPStatus(err)
	c.JSON(code, gin.H{"message": apperror.Message(err)})
}
