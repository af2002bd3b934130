package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"coinwatch/internal/client/coingecko"
	"coinwatch/internal/config"
	cronrunner "coinwatch/internal/cron"
	"coinwatch/internal/db"
	"coinwatch/internal/gate"
	"coinwatch/internal/handler"
	"coinwatch/internal/logger"
	gormrepository "coinwatch/internal/repository/gorm"
	"coinwatch/internal/service"
	"coinwatch/internal/stream"

	_ "coinwatch/docs"
)

func main() {
	cfgPath := os.Getenv("CW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CW_ENV_ONLY"); envOnlyRaw != "" {
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

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	provider := coingecko.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, cfg.Upstream.APIKey)

	priceGate := &gate.Gate{
		Source:       provider,
		Logger:       logger,
		AssetID:      cfg.Asset.ID,
		MinInterval:  cfg.Gate.MinInterval,
		CacheTTL:     cfg.Gate.CacheTTL,
		FetchTimeout: cfg.Gate.FetchTimeout,
	}

	var hub *stream.Hub
	if cfg.Stream.Enabled {
		hub = stream.NewHub(logger, cfg.Stream.SendBuffer)
	}

	collector := &service.CollectorService{
		Gate:   priceGate,
		Repo:   store,
		Hub:    hub,
		Logger: logger,
	}
	backfill := &service.BackfillService{
		Gate:    priceGate,
		Repo:    store,
		Logger:  logger,
		AssetID: cfg.Asset.ID,
		Window:  cfg.Backfill.Window,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	priceHandler := &handler.PriceHandler{
		Gate:           priceGate,
		Collector:      collector,
		Repo:           store,
		AssetID:        cfg.Asset.ID,
		RequestTimeout: cfg.Gate.RequestTimeout,
	}
	priceHandler.Register(engine)
	dataHandler := &handler.DataHandler{
		Backfill: backfill,
		Repo:     store,
		AssetID:  cfg.Asset.ID,
		Defaults: cfg.Backfill,
	}
	dataHandler.Register(engine)
	if hub != nil {
		streamHandler := &handler.StreamHandler{Hub: hub, Logger: logger}
		streamHandler.Register(engine)
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.Collect, func(ctx context.Context) {
			sample, err := collector.CollectOnce(ctx)
			if err != nil {
				logger.Warn("cron collect failed", zap.Error(err))
				return
			}
			logger.Info("cron collect ok",
				zap.String("asset_id", sample.AssetID),
				zap.String("price", sample.Price.String()),
				zap.Time("observed_at", sample.ObservedAt),
			)
		})
		if err != nil {
			logger.Warn("cron register collect failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	// Collect once before serving so the first dashboard request has data.
	{
		initCtx, cancel := context.WithTimeout(ctx, cfg.Gate.RequestTimeout)
		if _, err := collector.CollectOnce(initCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("initial collect failed (continuing)", zap.Error(err))
		}
		cancel()
	}

	errCh := make(chan error, 2)

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

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
