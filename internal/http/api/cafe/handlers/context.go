package handlers

import "github.com/gin-gonic/gin"

// getCafeID returns the authenticated cafe ID from the request context.
func getCafeID(c *gin.Context) uint64 {
	return c.GetUint64("cafeID")
}
