package main

import (
	"Bookstore/audit"
	"Bookstore/cache"
	"Bookstore/config"
	"Bookstore/jwt"
	"Bookstore/payment"
	"Bookstore/routers"
	"Bookstore/services"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.SetupDatabaseConnection(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		dbInstance, _ := db.DB()
		_ = dbInstance.Close()
	}()

	rdb := config.SetupRedisConnection(cfg)
	if rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, book cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Audit.MongoURI != "" {
		mongoRecorder, err := audit.NewMongoRecorder(ctx, cfg.Audit.MongoURI, cfg.Audit.Database, cfg.Audit.Collection)
		if err != nil {
			return err
		}
		defer mongoRecorder.Close(context.Background())
		recorder = mongoRecorder
	}

	key, _ := cfg.JWT.Key()
	ttl, _ := cfg.JWT.TTL()
	tokens := jwt.NewManager(key, ttl)

	users := services.NewUserService(db, tokens, logger)
	if _, err := users.SeedAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	router := routers.SetupRouters(routers.Dependencies{
		DB:             db,
		Tokens:         tokens,
		Users:          users,
		Catalog:        services.NewCatalogService(db, cache.NewBookCache(rdb), logger),
		Carts:          services.NewCartService(db, logger),
		Payments:       services.NewPaymentService(db, payment.NewStripeProvider(cfg.Stripe.APIKey), recorder, cfg.Stripe.PublishableKey, cfg.Stripe.Currency, logger),
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		UploadDir:      cfg.Server.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grace, _ := cfg.Server.ShutdownGrace()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
