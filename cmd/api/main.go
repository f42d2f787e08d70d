package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"user-management/internal/core/auth"
	"user-management/internal/core/cache"
	"user-management/internal/core/config"
	"user-management/internal/core/logger"
	"user-management/internal/core/server"
	"user-management/internal/repo"
	"user-management/internal/service"
	"user-management/internal/transport/http/handler"
	"user-management/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	// 存储（失败直接 Fatal）
	ctx := context.Background()
	store, closeStore, err := repo.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("store open", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer func() { _ = closeStore(context.Background()) }()

	if cfg.DB.AutoMigrate {
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatal("ensure indexes failed", zap.Error(err))
		}
		log.Info("indexes ready")
	}

	// 可选 Redis 读缓存
	opts := []service.Option{service.WithLogger(log)}
	if cfg.Redis.Addr != "" {
		rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, reads fall back to store", zap.Error(err))
		}
		opts = append(opts, service.WithCache(rc, time.Duration(cfg.Redis.TTLSec)*time.Second))
	}
	userSvc := service.NewUserService(store, opts...)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
	authn, err := auth.NewStaticAuthenticator(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.PasswordHash)
	if err != nil {
		log.Fatal("authenticator", zap.Error(err))
	}

	r := router.NewAPIEngine(router.Deps{
		Log:    log,
		Cfg:    cfg,
		JWT:    jwter,
		Health: userSvc,
		Registry: router.NewRegistry(
			handler.NewAuthHandler(authn, jwter, router.LoginGuards(cfg.API)...),
			handler.NewUserHandler(userSvc, cfg.API.EmptyListNotFound),
		),
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("cors", cfg.App.CORS.AllowedOrigin),
		zap.Bool("requireToken", cfg.Auth.RequireToken),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()
	log.Info("user api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("user api stopped gracefully")
}
