package handlers

import (
	"net/http"
	"strings"

	dbutil "github.com/brewloyal/brewloyal/internal/db"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CafeDirectoryHandler serves the public list of approved cafes.
type CafeDirectoryHandler struct {
	db *gorm.DB
}

// NewCafeDirectoryHandler constructs a CafeDirectoryHandler.
func NewCafeDirectoryHandler(db *gorm.DB) *CafeDirectoryHandler {
	return &CafeDirectoryHandler{db: db}
}

// List returns approved cafes, optionally filtered by name.
func (h *CafeDirectoryHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Cafe{}).
		Where("status = ?", models.CafeStatusActive)
	if searchQ := strings.TrimSpace(c.Query("search")); searchQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+searchQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}

	var rows []models.Cafe
	if errFind := q.Order("name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cafes failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":      row.ID,
			"name":    row.Name,
			"address": row.Address,
		})
	}
	c.JSON(http.StatusOK, gin.H{"cafes": out})
}
