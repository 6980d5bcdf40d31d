package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

// Recovery turns a panic into a JSON 500 and logs it
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.Errorw("Recovered from panic",
			"path", c.FullPath(),
			"method", c.Request.Method,
			"panic", recovered,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
	})
}
