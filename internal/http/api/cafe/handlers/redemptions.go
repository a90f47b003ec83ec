package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/challenge"
	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/redemption"
	"github.com/gin-gonic/gin"
)

// RedemptionHandler drives the two-phase redemption flow for cafes.
type RedemptionHandler struct {
	redemptions *redemption.Service
}

// NewRedemptionHandler constructs a RedemptionHandler.
func NewRedemptionHandler(redemptions *redemption.Service) *RedemptionHandler {
	return &RedemptionHandler{redemptions: redemptions}
}

// initiateRequest defines the request body for starting a redemption.
type initiateRequest struct {
	Phone  string `json:"phone"`
	Points int64  `json:"points"`
}

// Initiate starts a redemption and mails the customer a one-time code.
func (h *RedemptionHandler) Initiate(c *gin.Context) {
	cafeID := getCafeID(c)
	if cafeID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body initiateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	phone := strings.TrimSpace(body.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone"})
		return
	}

	email, errInitiate := h.redemptions.Initiate(c.Request.Context(), cafeID, phone, body.Points)
	if errInitiate != nil {
		var insufficient *ledger.InsufficientBalanceError
		switch {
		case errors.Is(errInitiate, redemption.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "points must be positive"})
		case errors.Is(errInitiate, redemption.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		case errors.As(errInitiate, &insufficient):
			c.JSON(http.StatusConflict, gin.H{"error": insufficient.Error()})
		case errors.Is(errInitiate, redemption.ErrNotificationFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver code to customer"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "initiate redemption failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email, "status": "code_sent"})
}

// verifyRequest defines the request body for completing a redemption.
type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify consumes the customer's code and debits their balance.
func (h *RedemptionHandler) Verify(c *gin.Context) {
	cafeID := getCafeID(c)
	if cafeID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body verifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.TrimSpace(body.Email)
	code := strings.TrimSpace(body.Code)
	if email == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or code"})
		return
	}

	if errVerify := h.redemptions.Verify(c.Request.Context(), email, code); errVerify != nil {
		var insufficient *ledger.InsufficientBalanceError
		switch {
		case errors.Is(errVerify, challenge.ErrInvalidOrExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
		case errors.As(errVerify, &insufficient):
			c.JSON(http.StatusConflict, gin.H{"error": insufficient.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verify redemption failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "redeemed"})
}
