package cafe

import (
	"net/http"
	"strings"

	"github.com/brewloyal/brewloyal/internal/challenge"
	"github.com/brewloyal/brewloyal/internal/config"
	handlers "github.com/brewloyal/brewloyal/internal/http/api/cafe/handlers"
	"github.com/brewloyal/brewloyal/internal/http/throttle"
	"github.com/brewloyal/brewloyal/internal/mailer"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/ratelimit"
	"github.com/brewloyal/brewloyal/internal/redemption"
	"github.com/brewloyal/brewloyal/internal/security"
	"github.com/brewloyal/brewloyal/internal/visit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterCafeRoutes registers cafe routes, middleware, and handlers.
func RegisterCafeRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, mail mailer.Sender, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	cafeGroup := r.Group("/v0/cafe")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	cafeGroup.POST("/register", authHandler.Register)
	cafeGroup.POST("/login", throttle.Middleware(limiter, "cafe-login", ratelimit.LoginRule), authHandler.Login)

	authed := cafeGroup.Group("")
	authed.Use(cafeAuthMiddleware(db, jwtCfg))

	visitHandler := handlers.NewVisitHandler(db, visit.NewService(db))
	authed.POST("/visits", visitHandler.Record)

	redemptionHandler := handlers.NewRedemptionHandler(
		redemption.NewService(db, challenge.NewStore(db), mail))
	authed.POST("/redemptions/initiate",
		throttle.Middleware(limiter, "cafe-code", ratelimit.CodeRequestRule), redemptionHandler.Initiate)
	authed.POST("/redemptions/verify",
		throttle.Middleware(limiter, "cafe-attempt", ratelimit.LoginRule), redemptionHandler.Verify)

	customerHandler := handlers.NewCustomerHandler(db)
	authed.GET("/customers", customerHandler.Lookup)

	analyticsHandler := handlers.NewAnalyticsHandler(db)
	authed.GET("/analytics/summary", analyticsHandler.Summary)
}

// cafeAuthMiddleware validates cafe JWTs and loads cafe context. Cafes whose
// approval is revoked lose access on their next request.
func cafeAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		sessionClaims, errJWT := security.ParseToken(jwtCfg.Secret, token, security.RoleCafe)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var cafe models.Cafe
		if errFind := db.WithContext(c.Request.Context()).First(&cafe, sessionClaims.SubjectID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "cafe not found"})
			return
		}
		if cafe.Status != models.CafeStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cafe not approved"})
			return
		}

		c.Set("cafeID", cafe.ID)
		c.Set("cafeName", cafe.Name)
		c.Next()
	}
}
