package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
)

// notFound answers unmatched routes with the standard error envelope.
func notFound(c *gin.Context) {
	dto.AbortWithErrorCode(c, dto.ErrorCodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
}

// methodNotAllowed answers a known path requested with the wrong method.
func methodNotAllowed(c *gin.Context) {
	dto.AbortWithErrorCode(c, dto.ErrorCodeMethodNotAllowed, c.Request.Method+" is not allowed on "+c.Request.URL.Path)
}
