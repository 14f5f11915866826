package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/circuitbreaker"
	"github.com/fjod/storefront/internal/config"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/poller"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/internal/telemetry"
)

const serviceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("storefront stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.TracingEnabled)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error("tracing shutdown failed", "error", err)
		}
	}()

	// MongoDB: carts and users, plus orders unless Postgres is selected.
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Error("mongo disconnect failed", "error", err)
		}
	}()
	log.Info("connected to MongoDB", "db", cfg.MongoDBName)

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	orderRepo, closeOrders, err := openOrderRepository(cfg, db, log)
	if err != nil {
		return err
	}
	defer closeOrders()

	catalogRepo, err := repository.NewSQLiteProductRepository(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}

	userRepo := repository.NewMongoUserRepository(db)
	catalog := service.NewCatalogService(catalogRepo)
	carts := service.NewCartService(repository.NewMongoCartRepository(db), cache.NewRedisCache(redisClient), catalog, log)
	orders := service.NewOrderService(orderRepo, userRepo, log)
	authService := service.NewAuthService(userRepo, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), log)

	var (
		placed service.OrderPlacedHandler = carts
		wg     sync.WaitGroup
	)
	if cfg.KafkaEnabled() {
		writer := publisher.NewKafkaWriter(cfg.KafkaBrokers, publisher.TopicOrderEvents)
		breaker := circuitbreaker.New("kafka-order-events", circuitbreaker.DefaultConfig(), log)
		kafkaPublisher := publisher.NewKafkaPublisher(writer, breaker, log)
		defer kafkaPublisher.Close()
		placed = service.NewFallbackPlacedHandler(kafkaPublisher, carts, log)

		cleaner := poller.NewPoller(poller.NewKafkaReader(cfg.KafkaBrokers, publisher.TopicOrderEvents), carts, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			cleaner.Run(ctx)
		}()
		defer func() {
			wg.Wait()
			cleaner.Close()
		}()
		log.Info("order events routed through kafka", "brokers", cfg.KafkaBrokers)
	}
	checkout := service.NewCheckoutService(carts, orders, placed, log)

	router := h.NewRouter(h.Services{
		Auth:     authService,
		Carts:    carts,
		Orders:   orders,
		Checkout: checkout,
		Catalog:  catalog,
	}, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// openOrderRepository picks the order store named by ORDER_STORE. The returned
// func releases whatever the store opened.
func openOrderRepository(cfg *config.Config, db *mongo.Database, log *slog.Logger) (repository.OrderRepository, func(), error) {
	if cfg.OrderStore != config.OrderStorePostgres {
		return repository.NewMongoOrderRepository(db), func() {}, nil
	}

	sqlDB, err := repository.OpenPostgres(&repository.Credentials{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		DBName:   cfg.Postgres.DBName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	repo := repository.NewPostgresOrderRepository(sqlDB)
	if err := repo.RunMigrations(cfg.OrdersMigrationsPath); err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("order migrations: %w", err)
	}
	log.Info("orders stored in postgres", "host", cfg.Postgres.Host, "db", cfg.Postgres.DBName)

	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Error("postgres close failed", "error", err)
		}
	}, nil
}
