package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/brewloyal/brewloyal/internal/challenge"
	"github.com/brewloyal/brewloyal/internal/config"
	"github.com/brewloyal/brewloyal/internal/mailer"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/referral"
	"github.com/brewloyal/brewloyal/internal/security"
	"github.com/brewloyal/brewloyal/internal/settings"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler handles customer registration and authentication.
type AuthHandler struct {
	db         *gorm.DB
	jwtCfg     config.JWTConfig
	challenges *challenge.Store
	mail       mailer.Sender
	referrals  *referral.Allocator
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, challenges *challenge.Store, mail mailer.Sender) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtCfg:     jwtCfg,
		challenges: challenges,
		mail:       mail,
		referrals:  referral.NewAllocator(),
	}
}

// registerRequest defines the request body for customer registration.
type registerRequest struct {
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

// Register creates an unverified account and mails a verification code. The
// referral code is captured now but pays out only once the email is verified.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	phone := strings.TrimSpace(body.Phone)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if phone == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone or email"})
		return
	}
	if strings.TrimSpace(body.Password) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing password"})
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user := models.User{
		Phone:        phone,
		Email:        email,
		Name:         strings.TrimSpace(body.Name),
		Password:     hash,
		ReferralCode: referral.NewCode(),
		ReferredBy:   strings.TrimSpace(body.ReferralCode),
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "phone or email already registered"})
		return
	}

	if errSend := h.sendRegistrationCode(c, user.Email); errSend != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver verification code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"referral_code": user.ReferralCode,
		"status":        "verification_sent",
	})
}

// ResendVerification issues a fresh verification code for an unverified account.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind == nil && !user.Verified {
		if errSend := h.sendRegistrationCode(c, user.Email); errSend != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver verification code"})
			return
		}
	}
	// Uniform response; the endpoint does not reveal which emails exist.
	c.JSON(http.StatusOK, gin.H{"status": "verification_sent"})
}

func (h *AuthHandler) sendRegistrationCode(c *gin.Context, email string) error {
	ctx := c.Request.Context()
	code, errIssue := h.challenges.Issue(ctx, email, models.ChallengePurposeRegistration, nil, challenge.RegistrationTTL)
	if errIssue != nil {
		return errIssue
	}
	minutes := int(challenge.RegistrationTTL.Minutes())
	subject, text, html := mailer.RegistrationMessage(settings.SiteName(ctx, h.db), code, minutes)
	if errSend := h.mail.Send(ctx, email, subject, text, html); errSend != nil {
		if errRetract := h.challenges.Retract(ctx, email, models.ChallengePurposeRegistration); errRetract != nil {
			log.WithError(errRetract).Warn("retract registration challenge failed")
		}
		return errSend
	}
	return nil
}

// verifyRequest defines the request body for email verification.
type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify consumes the registration code, marks the account verified, and
// grants registration and referral XP in the same transaction.
func (h *AuthHandler) Verify(c *gin.Context) {
	var body verifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	code := strings.TrimSpace(body.Code)
	if email == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or code"})
		return
	}

	ctx := c.Request.Context()
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, errConsume := challenge.NewStore(tx).Consume(ctx, email, models.ChallengePurposeRegistration, code); errConsume != nil {
			return errConsume
		}

		var user models.User
		if errFind := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error; errFind != nil {
			return errFind
		}
		if user.Verified {
			return nil
		}

		res := tx.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND verified = ?", user.ID, false).
			Updates(map[string]any{"verified": true, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return h.referrals.ApplyWithConn(ctx, tx, &user)
	})
	if errTx != nil {
		if errors.Is(errTx, challenge.ErrInvalidOrExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// loginRequest defines the request body for customer login.
type loginRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a verified customer by phone or email.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	phone := strings.TrimSpace(body.Phone)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if (phone == "" && email == "") || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing credentials"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if phone != "" {
		q = q.Where("phone = ?", phone)
	} else {
		q = q.Where("email = ?", email)
	}
	var user models.User
	if errFind := q.First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.Verified {
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
		return
	}

	token, errToken := security.IssueToken(h.jwtCfg.Secret, security.RoleUser, user.ID, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"phone":         user.Phone,
			"xp":            user.XP,
			"referral_code": user.ReferralCode,
		},
	})
}

// PasswordResetRequest mails a reset code to the given address when an
// account exists. The response does not reveal whether one does.
func (h *AuthHandler) PasswordResetRequest(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if errFind := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; errFind == nil {
		code, errIssue := h.challenges.Issue(ctx, email, models.ChallengePurposePasswordReset, nil, challenge.PasswordResetTTL)
		if errIssue == nil {
			minutes := int(challenge.PasswordResetTTL.Minutes())
			subject, text, html := mailer.PasswordResetMessage(settings.SiteName(ctx, h.db), code, minutes)
			if errSend := h.mail.Send(ctx, email, subject, text, html); errSend != nil {
				log.WithError(errSend).Warn("send password reset code failed")
				if errRetract := h.challenges.Retract(ctx, email, models.ChallengePurposePasswordReset); errRetract != nil {
					log.WithError(errRetract).Warn("retract password reset challenge failed")
				}
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset_sent"})
}

// passwordResetConfirmRequest defines the request body for completing a reset.
type passwordResetConfirmRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// PasswordResetConfirm consumes the reset code and sets the new password.
func (h *AuthHandler) PasswordResetConfirm(c *gin.Context) {
	var body passwordResetConfirmRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	code := strings.TrimSpace(body.Code)
	if email == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or code"})
		return
	}
	if strings.TrimSpace(body.Password) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing password"})
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	ctx := c.Request.Context()
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, errConsume := challenge.NewStore(tx).Consume(ctx, email, models.ChallengePurposePasswordReset, code); errConsume != nil {
			return errConsume
		}
		res := tx.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", email).
			Updates(map[string]any{"password": hash, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return challenge.ErrInvalidOrExpired
		}
		return nil
	})
	if errTx != nil {
		if errors.Is(errTx, challenge.ErrInvalidOrExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}
