package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/warefleet/fulfillment/internal/adapter/events"
	"github.com/warefleet/fulfillment/internal/adapter/handler"
	"github.com/warefleet/fulfillment/internal/adapter/storage"
	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/core/service"
	"github.com/warefleet/fulfillment/internal/port"
	"github.com/warefleet/fulfillment/pkg/logging"
)

const (
	eventQueueSize  = 1000
	eventWorkers    = 4
	shutdownTimeout = 5 * time.Second
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger := logging.New(slog.LevelInfo)
	slog.SetDefault(logger)

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")
	mysqlDSN := getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/fulfillment?parseTime=true")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	amqpURL := os.Getenv("AMQP_URL") // empty disables event publishing
	amqpExchange := getEnv("AMQP_EXCHANGE", "order_exchange")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		logger.Error("failed to open mysql", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping mysql", "error", err)
		os.Exit(1)
	}
	if err := storage.RunMigrations(db, migrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to mysql, migrations applied")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to redis")

	// RabbitMQ (optional)
	var publisher port.EventPublisher
	if amqpURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(amqpURL, amqpExchange, logger)
		if err != nil {
			logger.Error("failed to connect rabbitmq", "error", err)
			os.Exit(1)
		}
		publisher = events.NewAsyncPublisher(rabbit, eventQueueSize, eventWorkers, logger)
		logger.Info("connected to rabbitmq", "exchange", amqpExchange)
	}

	// Core services
	inventory := service.NewInventoryService()
	routing := service.NewRoutingService()
	repo := storage.NewBreakerRepository(storage.NewMySQLAdapter(db), logger)
	cache := storage.NewRedisAdapter(rdb)
	orders := service.NewOrderService(inventory, routing, repo, cache, publisher, logger)

	if getEnv("SEED_DATA", "false") == "true" {
		seedInventory(inventory, logger)
	}

	// HTTP server
	h := handler.NewHTTPHandler(inventory, orders)
	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: otelhttp.NewHandler(h.Routes(), "http.server"),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
		logger.Info("event publisher stopped")
	}

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}

func seedInventory(inventory *service.InventoryService, logger *slog.Logger) {
	seed := []struct {
		name     string
		price    string
		quantity int
		location domain.Point
	}{
		{"Laptop", "999.99", 100, domain.Point{X: 0, Y: 1}},
		{"Smartphone", "599.99", 200, domain.Point{X: 1, Y: 1}},
		{"Headphones", "99.99", 150, domain.Point{X: 2, Y: 3}},
		{"Keyboard", "49.50", 80, domain.Point{X: 4, Y: 0}},
	}
	for _, s := range seed {
		if _, err := inventory.Upsert("", s.name, decimal.RequireFromString(s.price), s.quantity, s.location); err != nil {
			logger.Warn("failed to seed product", "name", s.name, "error", err)
			continue
		}
		logger.Info("seeded product", "name", s.name, "quantity", s.quantity, "location", s.location.String())
	}
}
