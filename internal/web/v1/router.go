package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewEngine returns a gin engine with panic recovery that routes on the raw
// (still escaped) path, so an author or title containing "/" sent as %2F
// stays one path segment. Path values are unescaped before handlers see them.
// Unmatched routes answer with the JSON error envelope.
func NewEngine() *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}
