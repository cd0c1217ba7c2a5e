package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-service/cache"
	"storefront-service/config"
	"storefront-service/consumers"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/invoices"
	"storefront-service/mailer"
	"storefront-service/rabbitmq"
	"storefront-service/repository"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	cfg := config.LoadConfig()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.InitDB(cfg); err != nil {
		fatal("Database initialization failed", err)
	}
	defer database.CloseDB()

	products := repository.NewProductRepository(database.DB)
	users := repository.NewUserRepository(database.DB)
	carts := repository.NewCartRepository(database.DB)
	orders := repository.NewOrderRepository(database.DB)
	refunds := repository.NewRefundRepository(database.DB)
	categories := repository.NewCategoryRepository(database.DB)
	wishlists := repository.NewWishlistRepository(database.DB)
	reviews := repository.NewReviewRepository(database.DB)

	var cartCache cache.CartCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			fatal("Redis initialization failed", err)
		}
		defer client.Close()
		cartCache = cache.NewRedisCache(client)
	}

	var notificationRepo repository.NotificationRepository = repository.NewMemoryNotificationRepository()
	if cfg.MongoURI != "" {
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			fatal("MongoDB initialization failed", err)
		}
		defer db.Client().Disconnect(context.Background())
		repo := repository.NewMongoNotificationRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			slog.Warn("Failed to create notification indexes", "err", err)
		}
		notificationRepo = repo
	}
	notifications := services.NewNotificationService(notificationRepo)

	store, err := invoices.NewStore(cfg.InvoiceDir)
	if err != nil {
		fatal("Invoice store initialization failed", err)
	}

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.EmailTimeout,
		})
	}

	worker := &consumers.InvoiceWorker{
		Orders:        orders,
		Users:         users,
		Renderer:      invoices.Renderer{ShopName: "Storefront", MaxBytes: cfg.InvoiceMaxBytes},
		Store:         store,
		Mailer:        mail,
		Notifications: notifications,
		RenderTimeout: cfg.InvoiceTimeout,
		EmailTimeout:  cfg.EmailTimeout,
	}

	var dispatcher services.JobDispatcher
	if cfg.RabbitMQURL != "" {
		rmq, err := rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			fatal("RabbitMQ initialization failed", err)
		}
		defer rmq.Close()
		if err := rmq.SetupQueues(); err != nil {
			fatal("Failed to setup RabbitMQ queues", err)
		}
		if err := consumers.StartInvoiceConsumer(ctx, rmq.Channel, cfg, worker); err != nil {
			fatal("Failed to start invoice consumer", err)
		}
		dispatcher = rmq
	} else {
		queue, err := consumers.NewLocalQueue(cfg.LocalQueueSize, worker)
		if err != nil {
			fatal("Invoice queue initialization failed", err)
		}
		if err := queue.Start(context.Background()); err != nil {
			fatal("Failed to start invoice queue", err)
		}
		defer queue.Stop()
		dispatcher = queue
		slog.Info("RABBITMQ_URL not set, running invoice jobs in process")
	}

	cartService := services.NewCartService(carts, products, cartCache)
	productService := services.NewProductService(products, categories)
	wishlistService := services.NewWishlistService(wishlists, products, notifications, mail, cfg.EmailTimeout)
	productService.SetDiscountNotifier(wishlistService)
	controllers.SetServices(controllers.Services{
		Auth:          services.NewAuthService(users, cartService, cfg.JWTSecret, cfg.JWTTTL),
		Carts:         cartService,
		Checkout:      services.NewCheckoutService(carts, users, products, orders, cartService, dispatcher),
		Orders:        services.NewOrderService(orders, notifications),
		Refunds:       services.NewRefundService(refunds, orders, notifications),
		Products:      productService,
		Sales:         services.NewSalesService(orders),
		Notifications: notifications,
		Wishlist:      wishlistService,
		Reviews:       services.NewReviewService(reviews, products),
		Categories:    services.NewCategoryService(categories, products),
		Invoices:      store,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           controllers.NewRouter(cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Storefront service starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "err", err)
	}
}
