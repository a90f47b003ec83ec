package admin

import (
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/claims"
	"github.com/brewloyal/brewloyal/internal/config"
	handlers "github.com/brewloyal/brewloyal/internal/http/api/admin/handlers"
	"github.com/brewloyal/brewloyal/internal/http/api/admin/permissions"
	"github.com/brewloyal/brewloyal/internal/http/throttle"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/ratelimit"
	"github.com/brewloyal/brewloyal/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	adminGroup.POST("/login", throttle.Middleware(limiter, "admin-login", ratelimit.LoginRule), authHandler.Login)

	selfAuthed := adminGroup.Group("")
	selfAuthed.Use(adminAuthMiddleware(db, jwtCfg))

	mfaHandler := handlers.NewMFAHandler(db)
	selfAuthed.GET("/mfa/status", mfaHandler.Status)
	selfAuthed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	selfAuthed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	selfAuthed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))
	authed.Use(adminPermissionMiddleware())

	claimHandler := handlers.NewClaimHandler(db, claims.NewService(db))
	authed.GET("/claims", claimHandler.List)
	authed.GET("/claims/:id", claimHandler.Get)
	authed.POST("/claims/:id/approve", claimHandler.Approve)
	authed.POST("/claims/:id/reject", claimHandler.Reject)

	cafeHandler := handlers.NewCafeHandler(db)
	authed.GET("/cafes", cafeHandler.List)
	authed.GET("/cafes/:id", cafeHandler.Get)
	authed.POST("/cafes/:id/approve", cafeHandler.Approve)
	authed.POST("/cafes/:id/reject", cafeHandler.Reject)

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.GET("/users/:id/ledger", userHandler.Ledger)
	authed.POST("/users/:id/multiplier", userHandler.SetMultiplier)

	adminHandler := handlers.NewAdminHandler(db)
	authed.POST("/admins", adminHandler.Create)
	authed.GET("/admins", adminHandler.List)
	authed.GET("/admins/:id", adminHandler.Get)
	authed.POST("/admins/:id/disable", adminHandler.Disable)
	authed.POST("/admins/:id/enable", adminHandler.Enable)

	permissionHandler := handlers.NewPermissionHandler()
	authed.GET("/permissions", permissionHandler.List)
}

// adminAuthMiddleware validates admin JWTs and loads admin context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		sessionClaims, errJWT := security.ParseToken(jwtCfg.Secret, token, security.RoleAdmin)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, sessionClaims.SubjectID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		adminPermissions := permissions.ParsePermissions(admin.Permissions)
		c.Set("adminID", admin.ID)
		c.Set("adminUsername", admin.Username)
		c.Set("adminPermissions", adminPermissions)
		c.Set("adminIsSuperAdmin", admin.IsSuperAdmin)
		c.Next()
	}
}

// adminPermissionMiddleware enforces per-route admin permissions.
func adminPermissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool("adminIsSuperAdmin") {
			c.Next()
			return
		}

		perms, _ := c.Get("adminPermissions")
		granted, _ := perms.([]string)
		key := permissions.Key(c.Request.Method, c.FullPath())
		if !permissions.HasPermission(granted, key) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}
