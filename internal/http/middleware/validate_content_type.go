package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-cropper/internal/models"
)

var allowedBodyTypes = []string{
	"multipart/form-data",
	"application/x-www-form-urlencoded",
	"application/json",
}

// ValidateContentType rejects request bodies the API cannot parse.
// Requests without a body pass through.
func ValidateContentType() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength == 0 {
			ctx.Next()
			return
		}

		contentType := strings.ToLower(ctx.GetHeader("Content-Type"))
		for _, allowed := range allowedBodyTypes {
			if strings.HasPrefix(contentType, allowed) {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
			Success: false,
			Error:   "Unsupported content type: " + contentType,
		})
	}
}
