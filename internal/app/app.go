package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brewloyal/brewloyal/internal/config"
	"github.com/brewloyal/brewloyal/internal/db"
	adminapi "github.com/brewloyal/brewloyal/internal/http/api/admin"
	cafeapi "github.com/brewloyal/brewloyal/internal/http/api/cafe"
	frontapi "github.com/brewloyal/brewloyal/internal/http/api/front"
	"github.com/brewloyal/brewloyal/internal/mailer"
	"github.com/brewloyal/brewloyal/internal/ratelimit"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the loyalty API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	if errBootstrap := bootstrapAdminFromEnv(conn); errBootstrap != nil {
		return errBootstrap
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	if strings.TrimSpace(jwtConfig.Secret) == "" {
		return fmt.Errorf("missing jwt secret (set `jwt.secret` in config file or %s)", config.EnvJWTSecret)
	}
	mailConfig, _ := config.LoadMailConfig(configPath)
	mail := buildMailer(mailConfig)

	port := loadPort(configPath)
	if port <= 0 {
		if defaultPort <= 0 {
			defaultPort = 8318
		}
		port = defaultPort
	}

	limiter := ratelimit.NewManager(nil, nil, nil)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	adminapi.RegisterAdminRoutes(engine, conn, jwtConfig, limiter)
	cafeapi.RegisterCafeRoutes(engine, conn, jwtConfig, mail, limiter)
	frontapi.RegisterFrontRoutes(engine, conn, jwtConfig, mail, limiter)

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting loyalty server on %s with config=%s", addr, configPath)
	if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
		return errListen
	}
	return nil
}

// bootstrapAdminFromEnv creates the first admin from ADMIN_USERNAME and
// ADMIN_PASSWORD when the init server was skipped (config supplied via env)
// and no admin exists yet.
func bootstrapAdminFromEnv(conn *gorm.DB) error {
	initialized, errInit := HasAdminInitialized(conn)
	if errInit != nil {
		return errInit
	}
	if initialized {
		return nil
	}

	username := strings.TrimSpace(os.Getenv(config.EnvAdminUsername))
	password := os.Getenv(config.EnvAdminPassword)
	if username == "" || password == "" {
		log.Warnf("no admin account exists; set %s and %s to bootstrap one", config.EnvAdminUsername, config.EnvAdminPassword)
		return nil
	}
	if errCreate := CreateAdminUserWithConn(conn, username, password, os.Getenv(config.EnvSiteName)); errCreate != nil {
		return errCreate
	}
	log.Infof("bootstrapped first admin account %q from environment", username)
	return nil
}

// buildMailer selects the mail transport: the HTTP client when an API key is
// configured, otherwise log-only delivery.
func buildMailer(cfg config.MailConfig) mailer.Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warn("mail api key not configured, codes will be logged instead of sent")
		return mailer.LogSender{}
	}
	return mailer.NewClient(cfg.BaseURL, cfg.APIKey, cfg.From)
}
