package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/visit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VisitHandler records customer visits for cafes.
type VisitHandler struct {
	db     *gorm.DB
	visits *visit.Service
}

// NewVisitHandler constructs a VisitHandler.
func NewVisitHandler(db *gorm.DB, visits *visit.Service) *VisitHandler {
	return &VisitHandler{db: db, visits: visits}
}

// recordVisitRequest defines the request body for recording a visit.
type recordVisitRequest struct {
	Phone       string  `json:"phone"`
	AmountSpent float64 `json:"amount_spent"`
}

// Record credits a customer for a spend at the authenticated cafe.
func (h *VisitHandler) Record(c *gin.Context) {
	cafeID := getCafeID(c)
	if cafeID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body recordVisitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	phone := strings.TrimSpace(body.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone"})
		return
	}
	if body.AmountSpent < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_spent must not be negative"})
		return
	}

	var customer models.User
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("phone = ?", phone).First(&customer).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	result, errRecord := h.visits.RecordVisit(c.Request.Context(), customer.ID, cafeID, body.AmountSpent, false)
	if errRecord != nil {
		switch {
		case errors.Is(errRecord, visit.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		case errors.Is(errRecord, visit.ErrCafeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
		case errors.Is(errRecord, visit.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spend amount"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "record visit failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer_id":   customer.ID,
		"points_earned": result.PointsEarned,
		"xp_earned":     result.XPEarned,
		"new_balance":   result.NewBalance,
	})
}
