package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/brewloyal/brewloyal/internal/claims"
	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/visit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClaimHandler manages reward-claim adjudication endpoints.
type ClaimHandler struct {
	db     *gorm.DB
	claims *claims.Service
}

// NewClaimHandler constructs a ClaimHandler.
func NewClaimHandler(db *gorm.DB, claimSvc *claims.Service) *ClaimHandler {
	return &ClaimHandler{db: db, claims: claimSvc}
}

// claimStatusFromQuery maps a status query value to a claim status.
func claimStatusFromQuery(raw string) (models.ClaimStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return models.ClaimStatusPending, true
	case "approved":
		return models.ClaimStatusApproved, true
	case "rejected":
		return models.ClaimStatusRejected, true
	default:
		return 0, false
	}
}

// claimStatusLabel renders a claim status for responses.
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

// List returns claims, optionally filtered by status.
func (h *ClaimHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.RewardClaim{}).
		Preload("User").Preload("Cafe")
	if status, ok := claimStatusFromQuery(c.Query("status")); ok {
		q = q.Where("status = ?", status)
	}

	var rows []models.RewardClaim
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list claims failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":            row.ID,
			"user_id":       row.UserID,
			"user_name":     row.User.Name,
			"cafe_id":       row.CafeID,
			"cafe_name":     row.Cafe.Name,
			"amount":        row.Amount,
			"invoice_proof": row.InvoiceProof,
			"status":        claimStatusLabel(row.Status),
			"created_at":    row.CreatedAt,
			"processed_at":  row.ProcessedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"claims": out})
}

// Get returns a claim by ID.
func (h *ClaimHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var claim models.RewardClaim
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("User").Preload("Cafe").
		First(&claim, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            claim.ID,
		"user_id":       claim.UserID,
		"user_name":     claim.User.Name,
		"cafe_id":       claim.CafeID,
		"cafe_name":     claim.Cafe.Name,
		"amount":        claim.Amount,
		"invoice_proof": claim.InvoiceProof,
		"status":        claimStatusLabel(claim.Status),
		"created_at":    claim.CreatedAt,
		"processed_at":  claim.ProcessedAt,
	})
}

// Approve approves a pending claim and credits the ledger.
func (h *ClaimHandler) Approve(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, errApprove := h.claims.Approve(c.Request.Context(), id)
	if errApprove != nil {
		var insufficientErr *ledger.InsufficientBalanceError
		switch {
		case errors.Is(errApprove, claims.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
		case errors.Is(errApprove, claims.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "claim already processed"})
		case errors.Is(errApprove, visit.ErrUserNotFound) || errors.Is(errApprove, visit.ErrCafeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errApprove.Error()})
		case errors.As(errApprove, &insufficientErr):
			c.JSON(http.StatusConflict, gin.H{"error": insufficientErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "approve claim failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"points_earned": result.PointsEarned,
		"xp_earned":     result.XPEarned,
	})
}

// Reject rejects a pending claim with no ledger effect.
func (h *ClaimHandler) Reject(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if errReject := h.claims.Reject(c.Request.Context(), id); errReject != nil {
		switch {
		case errors.Is(errReject, claims.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
		case errors.Is(errReject, claims.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "claim already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reject claim failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
