package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CustomerHandler exposes customer lookups scoped to the authenticated cafe.
type CustomerHandler struct {
	db *gorm.DB
}

// NewCustomerHandler constructs a CustomerHandler.
func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

// Lookup returns a customer's name and their balance at this cafe. It exposes
// no contact details beyond what the cafe already knows.
func (h *CustomerHandler) Lookup(c *gin.Context) {
	cafeID := getCafeID(c)
	if cafeID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	phone := strings.TrimSpace(c.Query("phone"))
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone"})
		return
	}

	ctx := c.Request.Context()
	var customer models.User
	if errFind := h.db.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	balance, errBalance := ledger.NewStore(h.db).Balance(ctx, customer.ID, cafeID)
	if errBalance != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query balance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":    customer.Name,
		"balance": balance,
	})
}
