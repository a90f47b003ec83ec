package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/claims"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/visit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClaimFrontHandler lets customers submit and track reward claims.
type ClaimFrontHandler struct {
	db       *gorm.DB
	claimSvc *claims.Service
}

// NewClaimFrontHandler constructs a ClaimFrontHandler.
func NewClaimFrontHandler(db *gorm.DB, claimSvc *claims.Service) *ClaimFrontHandler {
	return &ClaimFrontHandler{db: db, claimSvc: claimSvc}
}

// submitClaimRequest defines the request body for submitting a claim.
type submitClaimRequest struct {
	CafeID       uint64  `json:"cafe_id"`
	Amount       float64 `json:"amount"`
	InvoiceProof string  `json:"invoice_proof"`
}

// Submit files a pending claim for an off-platform spend.
func (h *ClaimFrontHandler) Submit(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body submitClaimRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CafeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cafe_id is required"})
		return
	}

	claim, errSubmit := h.claimSvc.Submit(c.Request.Context(), userID, body.CafeID, body.Amount, strings.TrimSpace(body.InvoiceProof))
	if errSubmit != nil {
		switch {
		case errors.Is(errSubmit, claims.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		case errors.Is(errSubmit, visit.ErrCafeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submit claim failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         claim.ID,
		"cafe_id":    claim.CafeID,
		"amount":     claim.Amount,
		"status":     "pending",
		"created_at": claim.CreatedAt,
	})
}

// List returns the customer's claims, newest first.
func (h *ClaimFrontHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.RewardClaim
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list claims failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":           row.ID,
			"cafe_id":      row.CafeID,
			"cafe_name":    row.Cafe.Name,
			"amount":       row.Amount,
			"status":       claimStatusLabel(row.Status),
			"created_at":   row.CreatedAt,
			"processed_at": row.ProcessedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"claims": out})
}

// claimStatusLabel converts a claim status to its API string.
func claimStatusLabel(status models.ClaimStatus) string {
	switch status {
	case models.ClaimStatusPending:
		return "pending"
	case models.ClaimStatusApproved:
		return "approved"
	case models.ClaimStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}
