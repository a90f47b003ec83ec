package handlers

import (
	"errors"
	"net/http"

	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProfileHandler exposes the authenticated customer's account and balances.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Me returns the customer's profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"phone":         user.Phone,
		"email":         user.Email,
		"name":          user.Name,
		"xp":            user.XP,
		"referral_code": user.ReferralCode,
		"created_at":    user.CreatedAt,
	})
}

// Balances returns the customer's point balance at every cafe they have
// visited.
func (h *ProfileHandler) Balances(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.PointsBalance
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		Where("user_id = ?", userID).
		Order("total_points DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list balances failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"cafe_id":      row.CafeID,
			"cafe_name":    row.Cafe.Name,
			"total_points": row.TotalPoints,
		})
	}
	c.JSON(http.StatusOK, gin.H{"balances": out})
}
