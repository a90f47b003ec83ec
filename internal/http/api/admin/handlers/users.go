package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	dbutil "github.com/brewloyal/brewloyal/internal/db"
	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler manages end-user visibility endpoints for admins.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns users with optional filters.
func (h *UserHandler) List(c *gin.Context) {
	var (
		phoneQ  = strings.TrimSpace(c.Query("phone"))
		emailQ  = strings.TrimSpace(c.Query("email"))
		searchQ = strings.TrimSpace(c.Query("search"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if phoneQ != "" {
		q = q.Where("phone = ?", phoneQ)
	}
	if emailQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+emailQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "email"), pattern)
	}
	if searchQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+searchQ+"%")
		q = q.Where(
			dbutil.CaseInsensitiveLikeExpr(h.db, "name")+" OR "+
				dbutil.CaseInsensitiveLikeExpr(h.db, "email")+" OR phone LIKE ?",
			pattern,
			pattern,
			"%"+searchQ+"%",
		)
	}

	var rows []models.User
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":             row.ID,
			"phone":          row.Phone,
			"email":          row.Email,
			"name":           row.Name,
			"xp":             row.XP,
			"referral_code":  row.ReferralCode,
			"has_multiplier": row.HasMultiplier,
			"verified":       row.Verified,
			"created_at":     row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns a user by ID with their per-cafe balances.
func (h *UserHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var balances []models.PointsBalance
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", id).Find(&balances).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query balances failed"})
		return
	}
	balanceOut := make([]gin.H, 0, len(balances))
	for _, row := range balances {
		balanceOut = append(balanceOut, gin.H{"cafe_id": row.CafeID, "total_points": row.TotalPoints})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             user.ID,
		"phone":          user.Phone,
		"email":          user.Email,
		"name":           user.Name,
		"xp":             user.XP,
		"referral_code":  user.ReferralCode,
		"referred_by":    user.ReferredBy,
		"has_multiplier": user.HasMultiplier,
		"verified":       user.Verified,
		"balances":       balanceOut,
		"created_at":     user.CreatedAt,
	})
}

// Ledger audits a user's balances against the transaction log.
func (h *UserHandler) Ledger(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	var balances []models.PointsBalance
	if errFind := h.db.WithContext(ctx).Where("user_id = ?", id).Find(&balances).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query balances failed"})
		return
	}

	led := ledger.NewStore(h.db)
	out := make([]gin.H, 0, len(balances))
	for _, row := range balances {
		reconciled, errReconcile := led.Reconcile(ctx, row.UserID, row.CafeID)
		if errReconcile != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
			return
		}
		out = append(out, gin.H{
			"cafe_id":    row.CafeID,
			"balance":    row.TotalPoints,
			"reconciled": reconciled,
			"consistent": row.TotalPoints == reconciled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"ledger": out})
}

// setMultiplierRequest defines the request body for the multiplier toggle.
type setMultiplierRequest struct {
	HasMultiplier bool `json:"has_multiplier"`
}

// SetMultiplier toggles the admin-credit multiplier flag for a user.
func (h *UserHandler) SetMultiplier(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body setMultiplierRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"has_multiplier": body.HasMultiplier, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
