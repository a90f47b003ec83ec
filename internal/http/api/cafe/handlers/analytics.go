package handlers

import (
	"net/http"

	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AnalyticsHandler aggregates loyalty activity for the authenticated cafe.
type AnalyticsHandler struct {
	db *gorm.DB
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(db *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{db: db}
}

// Summary returns visit counts and point totals for the cafe.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	cafeID := getCafeID(c)
	if cafeID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	var totalVisits int64
	if errCount := h.db.WithContext(ctx).Model(&models.VisitLog{}).
		Where("cafe_id = ?", cafeID).Count(&totalVisits).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count visits failed"})
		return
	}

	var distinctCustomers int64
	if errCount := h.db.WithContext(ctx).Model(&models.VisitLog{}).
		Where("cafe_id = ?", cafeID).
		Distinct("user_id").Count(&distinctCustomers).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count customers failed"})
		return
	}

	var pointsIssued int64
	if errSum := h.db.WithContext(ctx).Model(&models.RewardTransaction{}).
		Where("cafe_id = ? AND type = ?", cafeID, models.TransactionTypeEarn).
		Select("COALESCE(SUM(points), 0)").
		Scan(&pointsIssued).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sum issued points failed"})
		return
	}

	var pointsRedeemed int64
	if errSum := h.db.WithContext(ctx).Model(&models.RewardTransaction{}).
		Where("cafe_id = ? AND type = ?", cafeID, models.TransactionTypeRedeem).
		Select("COALESCE(SUM(-points), 0)").
		Scan(&pointsRedeemed).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sum redeemed points failed"})
		return
	}

	var outstanding int64
	if errSum := h.db.WithContext(ctx).Model(&models.PointsBalance{}).
		Where("cafe_id = ?", cafeID).
		Select("COALESCE(SUM(total_points), 0)").
		Scan(&outstanding).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sum balances failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_visits":       totalVisits,
		"distinct_customers": distinctCustomers,
		"points_issued":      pointsIssued,
		"points_redeemed":    pointsRedeemed,
		"points_outstanding": outstanding,
	})
}
