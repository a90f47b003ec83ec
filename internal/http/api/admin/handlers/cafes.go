package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	dbutil "github.com/brewloyal/brewloyal/internal/db"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CafeHandler manages cafe approval endpoints.
type CafeHandler struct {
	db *gorm.DB
}

// NewCafeHandler constructs a CafeHandler.
func NewCafeHandler(db *gorm.DB) *CafeHandler {
	return &CafeHandler{db: db}
}

// cafeStatusLabel renders a cafe status for responses.
func cafeStatusLabel(status models.CafeStatus) string {
	switch status {
	case models.CafeStatusPending:
		return "pending"
	case models.CafeStatusActive:
		return "active"
	case models.CafeStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// List returns cafes with optional name/email search.
func (h *CafeHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Cafe{})
	if searchQ := strings.TrimSpace(c.Query("search")); searchQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+searchQ+"%")
		q = q.Where(
			dbutil.CaseInsensitiveLikeExpr(h.db, "name")+" OR "+dbutil.CaseInsensitiveLikeExpr(h.db, "email"),
			pattern,
			pattern,
		)
	}
	if statusQ := strings.ToLower(strings.TrimSpace(c.Query("status"))); statusQ != "" {
		switch statusQ {
		case "pending":
			q = q.Where("status = ?", models.CafeStatusPending)
		case "active":
			q = q.Where("status = ?", models.CafeStatusActive)
		case "rejected":
			q = q.Where("status = ?", models.CafeStatusRejected)
		}
	}

	var rows []models.Cafe
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cafes failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"name":       row.Name,
			"email":      row.Email,
			"address":    row.Address,
			"status":     cafeStatusLabel(row.Status),
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"cafes": out})
}

// Get returns a cafe by ID.
func (h *CafeHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var cafe models.Cafe
	if errFind := h.db.WithContext(c.Request.Context()).First(&cafe, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         cafe.ID,
		"name":       cafe.Name,
		"email":      cafe.Email,
		"address":    cafe.Address,
		"status":     cafeStatusLabel(cafe.Status),
		"created_at": cafe.CreatedAt,
		"updated_at": cafe.UpdatedAt,
	})
}

// Approve activates a pending cafe.
func (h *CafeHandler) Approve(c *gin.Context) {
	h.transition(c, models.CafeStatusActive)
}

// Reject rejects a pending cafe.
func (h *CafeHandler) Reject(c *gin.Context) {
	h.transition(c, models.CafeStatusRejected)
}

// transition moves a pending cafe to the target status at most once.
func (h *CafeHandler) transition(c *gin.Context, to models.CafeStatus) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Cafe{}).
		Where("id = ? AND status = ?", id, models.CafeStatusPending).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update cafe failed"})
		return
	}
	if res.RowsAffected == 0 {
		var cafe models.Cafe
		if errFind := h.db.WithContext(c.Request.Context()).First(&cafe, id).Error; errFind != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "cafe already " + cafeStatusLabel(cafe.Status)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
