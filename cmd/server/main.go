package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront_back_end/internal/analytics"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/handlers/dashboard"
	"storefront_back_end/internal/handlers/order"
	"storefront_back_end/internal/ledger"
	"storefront_back_end/internal/logger"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	l, err := logger.InitLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("❌ Initialisation du logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		zap.L().Fatal("❌ Échec connexion aux bases de données", zap.Error(err))
	}
	defer conns.Close()

	store, products, err := storage(ctx, cfg, conns)
	if err != nil {
		zap.L().Fatal("❌ Initialisation du stockage", zap.Error(err))
	}

	publisher := cache.NewPendingPublisher(conns.Redis, func(ctx context.Context) (int, error) {
		return store.CountByStatus(ctx, models.OrderStatusPending)
	})

	opts := []ledger.Option{ledger.WithEvents(publisher)}
	var mailer *utils.OrderMailer
	if cfg.SMTP.Enabled() {
		mailer = utils.NewOrderMailer(cfg.SMTP)
		opts = append(opts, ledger.WithNotifier(mailer))
		zap.L().Info("✅ Emails de confirmation activés", zap.String("smtp", cfg.SMTP.Host))
	}
	service := ledger.NewService(store, products, opts...)

	engine := analytics.NewEngine(store, products, analytics.WithLabelLayout(cfg.Analytics.LabelLayout))
	filters := cache.NewFilterCatalogCache(conns.Redis, products, cfg.Analytics.CatalogCacheTTL)
	// le catalogue a pu changer depuis le dernier démarrage
	if err := filters.Invalidate(ctx); err != nil {
		zap.L().Warn("⚠️ Invalidation du cache catalogue échouée", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		JWTSecret:   []byte(cfg.JWTSecret),
		RateLimiter: cache.NewRateLimiter(conns.Redis),
		Dashboard:   dashboard.NewHandler(engine, filters, service, publisher, dashboard.WithDefaultRange(cfg.Analytics.DefaultRangeDays)),
		Orders:      order.NewHandler(service, cfg.StripeWebhookSecret),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("🚀 Serveur lancé", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("❌ Serveur arrêté", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("🛑 Arrêt du serveur")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("❌ Arrêt forcé", zap.Error(err))
	}
	if mailer != nil {
		mailer.Wait()
	}
}

// storage choisit l'implémentation du ledger et du catalogue selon STORAGE_DRIVER.
func storage(ctx context.Context, cfg *config.Config, conns *database.Connections) (ledger.Store, catalog.Catalog, error) {
	if cfg.StorageDriver == config.StorageScylla {
		ordersSession, err := conns.OrdersSession(cfg.Scylla)
		if err != nil {
			return nil, nil, err
		}
		productsSession, err := conns.ProductsSession(cfg.Scylla)
		if err != nil {
			return nil, nil, err
		}
		return ledger.NewScyllaStore(ordersSession), catalog.NewScyllaCatalog(productsSession), nil
	}

	store := ledger.NewMemoryStore()
	products := catalog.NewMemoryCatalog()
	if err := seedFixtures(ctx, store, products, time.Now()); err != nil {
		return nil, nil, err
	}
	zap.L().Warn("⚠️ Stockage en mémoire : données de démonstration chargées")
	return store, products, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Debug("➡️ Requête",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
