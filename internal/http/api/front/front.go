package front

import (
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/challenge"
	"github.com/brewloyal/brewloyal/internal/claims"
	"github.com/brewloyal/brewloyal/internal/config"
	handlers "github.com/brewloyal/brewloyal/internal/http/api/front/handlers"
	"github.com/brewloyal/brewloyal/internal/http/throttle"
	"github.com/brewloyal/brewloyal/internal/mailer"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/ratelimit"
	"github.com/brewloyal/brewloyal/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers customer routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, mail mailer.Sender, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	frontGroup := r.Group("/v0")

	codeLimited := throttle.Middleware(limiter, "front-code", ratelimit.CodeRequestRule)
	attemptLimited := throttle.Middleware(limiter, "front-attempt", ratelimit.LoginRule)

	authHandler := handlers.NewAuthHandler(db, jwtCfg, challenge.NewStore(db), mail)
	frontGroup.POST("/register", codeLimited, authHandler.Register)
	frontGroup.POST("/register/verify", attemptLimited, authHandler.Verify)
	frontGroup.POST("/register/resend", codeLimited, authHandler.ResendVerification)
	frontGroup.POST("/login", attemptLimited, authHandler.Login)
	frontGroup.POST("/password-reset/request", codeLimited, authHandler.PasswordResetRequest)
	frontGroup.POST("/password-reset/confirm", attemptLimited, authHandler.PasswordResetConfirm)

	cafeDirectoryHandler := handlers.NewCafeDirectoryHandler(db)
	frontGroup.GET("/cafes", cafeDirectoryHandler.List)

	authed := frontGroup.Group("/me")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("", profileHandler.Me)
	authed.GET("/balances", profileHandler.Balances)

	activityHandler := handlers.NewActivityHandler(db)
	authed.GET("/activity", activityHandler.List)

	claimHandler := handlers.NewClaimFrontHandler(db, claims.NewService(db))
	authed.POST("/claims", claimHandler.Submit)
	authed.GET("/claims", claimHandler.List)
}

// userAuthMiddleware validates customer JWTs and loads user context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		sessionClaims, errJWT := security.ParseToken(jwtCfg.Secret, token, security.RoleUser)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, sessionClaims.SubjectID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.Verified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "email not verified"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
