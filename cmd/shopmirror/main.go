package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"shopmirror/internal/auth"
	"shopmirror/internal/cache"
	"shopmirror/internal/config"
	cronrunner "shopmirror/internal/cron"
	"shopmirror/internal/db"
	"shopmirror/internal/handler"
	"shopmirror/internal/logger"
	"shopmirror/internal/metrics"
	gormrepository "shopmirror/internal/repository/gorm"
	"shopmirror/internal/service"

	_ "shopmirror/docs"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	cfgPath := os.Getenv("SM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret is required")
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	dbConn, err := db.Open(openCtx, cfg.DB)
	cancelOpen()
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	kv := cache.New(cfg.Redis)
	if cfg.Redis.Addr == "" {
		logger.Warn("redis not configured, token blacklist kept in memory")
	}
	m := metrics.New(nil)

	ledger := service.NewLedger(store, logger)
	reconciler := &service.Reconciler{
		Tenants:   store,
		Mirror:    store,
		Ledger:    ledger,
		Clients:   service.NewClientFactory(cfg.Shopify, nil, m),
		Metrics:   m,
		Logger:    logger,
		PageLimit: cfg.Shopify.PageLimit,
	}
	ingestor := &service.WebhookIngestor{
		Tenants: store,
		Mirror:  store,
		Metrics: m,
		Logger:  logger,
	}
	scheduler := &service.Scheduler{
		Tenants: store,
		Syncer:  reconciler,
		Metrics: m,
		Logger:  logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(handler.RequestLogger(logger))
	engine.Use(m.Middleware())

	jwt := auth.JWT{Secret: []byte(cfg.Auth.JWTSecret), TokenTTL: cfg.Auth.TokenTTL}
	blacklist := &auth.Blacklist{Store: kv}
	requireTenant := handler.TokenAuth(jwt, blacklist, cfg.Auth.CookieName)

	healthHandler := &handler.HealthHandler{Checks: map[string]handler.Pinger{"db": store, "cache": kv}}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	m.Register(engine)

	authHandler := &handler.AuthHandler{
		Tenants:      store,
		JWT:          jwt,
		Blacklist:    blacklist,
		Auth:         requireTenant,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		Logger:       logger,
	}
	authHandler.Register(engine)
	tenantHandler := &handler.TenantHandler{Tenants: store, Auth: requireTenant, Logger: logger}
	tenantHandler.Register(engine)
	syncHandler := &handler.SyncHandler{
		Syncer:         reconciler,
		Ledger:         ledger,
		Auth:           requireTenant,
		Logger:         logger,
		OriginPatterns: originPatterns(cfg.Server.AllowOrigins),
	}
	syncHandler.Register(engine)
	webhookHandler := &handler.WebhookHandler{Ingestor: ingestor, Secret: cfg.Webhook.Secret, Logger: logger}
	webhookHandler.Register(engine)
	if cfg.Webhook.Secret == "" {
		logger.Warn("webhook.secret not set, webhook signatures are not checked")
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.Sync, func(ctx context.Context) {
			scheduler.RunCycle(ctx)
		})
		if err != nil {
			logger.Fatal("cron register sync failed", zap.String("spec", cfg.Cron.Sync), zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	} else {
		logger.Info("scheduled sync disabled")
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// originPatterns turns CORS origins into host patterns for the websocket
// origin check.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
