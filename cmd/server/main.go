package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	echoapi "github.com/preppulse/auth/api/echo"
	"github.com/preppulse/auth/cache"
	redisstore "github.com/preppulse/auth/cache/redis"
	"github.com/preppulse/auth/config"
	"github.com/preppulse/auth/internal/auth"
	"github.com/preppulse/auth/log"
	"github.com/preppulse/auth/middleware"
	"github.com/preppulse/auth/mongodb"
	"github.com/preppulse/auth/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	logger := log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	logger.Info(ctx, "starting preppulse auth server", map[string]interface{}{
		"http_port":     cfg.HTTPPort,
		"mongo_db_name": cfg.MongoDBName,
		"redis":         cfg.RedisAddr != "",
		"log_level":     logLevel.String(),
	})

	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to MongoDB", err)
	}
	defer mongodb.Disconnect(ctx, mongoClient)

	userRepo, err := mongodb.NewUserRepository(ctx, mongoClient.Database(cfg.MongoDBName))
	if err != nil {
		logger.Fatal(ctx, "failed to initialize user repository", err)
	}

	var sessions cache.SessionStore
	if cfg.RedisAddr != "" {
		sessions = redisstore.NewSessionStore(goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr}), cfg.RedisPrefix)
	} else {
		sessions = cache.NewMemorySessionStore()
	}

	tokenService := services.NewTokenService(
		cfg.JWTSecretKey,
		cfg.TokenIssuer,
		time.Duration(cfg.AccessTokenTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLHour)*time.Hour,
		sessions,
	)
	authService := services.NewAuthService(userRepo, auth.NewBcryptPasswordHasher(0), tokenService, logger)

	e := newEcho(logger)
	echoapi.NewAuthAPI(authService, middleware.NewAuthenticator(tokenService)).RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil {
			logger.Info(ctx, "http server stopped", map[string]interface{}{"reason": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", err)
	}
	logger.Info(ctx, "server stopped")
}

// newEcho builds the Echo instance with recovery and request logging.
func newEcho(logger log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(logger))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return e
}

func requestLogger(logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := map[string]interface{}{
				"method":  c.Request().Method,
				"path":    c.Request().URL.Path,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
				"ip":      c.RealIP(),
			}
			if err != nil {
				logger.Error(c.Request().Context(), "http request failed", err, fields)
			} else {
				logger.Info(c.Request().Context(), "http request", fields)
			}

			return err
		}
	}
}
