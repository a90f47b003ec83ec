package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActivityHandler serves the customer's transaction history.
type ActivityHandler struct {
	db *gorm.DB
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// List returns the customer's reward transactions, newest first.
func (h *ActivityHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		if parsed, errParse := strconv.Atoi(limitQ); errParse == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.RewardTransaction{}).
		Where("user_id = ?", userID)
	if cafeQ := strings.TrimSpace(c.Query("cafe_id")); cafeQ != "" {
		if id, errParse := strconv.ParseUint(cafeQ, 10, 64); errParse == nil {
			q = q.Where("cafe_id = ?", id)
		}
	}

	var rows []models.RewardTransaction
	if errFind := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list activity failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		kind := "earn"
		if row.Type == models.TransactionTypeRedeem {
			kind = "redeem"
		}
		out = append(out, gin.H{
			"id":          row.ID,
			"cafe_id":     row.CafeID,
			"type":        kind,
			"points":      row.Points,
			"description": row.Description,
			"created_at":  row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"activity": out})
}
