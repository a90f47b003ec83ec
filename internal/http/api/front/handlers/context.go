package handlers

import "github.com/gin-gonic/gin"

// getUserID returns the authenticated user ID from the request context.
func getUserID(c *gin.Context) uint64 {
	return c.GetUint64("userID")
}
