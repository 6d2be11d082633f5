package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZClee128/xieka/internal/auth"
	"github.com/ZClee128/xieka/internal/catalog"
	"github.com/ZClee128/xieka/internal/gateway"
	h "github.com/ZClee128/xieka/internal/http"
	"github.com/ZClee128/xieka/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	HTTPPort        string
	StorageBackend  string // sqlite | redis | memory
	SQLitePath      string
	RedisAddr       string
	RedisPassword   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "sqlite"),
		SQLitePath:      getEnv("SQLITE_PATH", "xieka.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	gw, err := openGateway(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage backend %q: %v", cfg.StorageBackend, err)
	}
	log.Printf("Storage backend: %s", cfg.StorageBackend)

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Catalog loaded: %d products", cat.Len())

	verifier := auth.NewMockVerifier()

	st, err := store.New(ctx, cat, gw, verifier)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	productHandler := h.NewProductHandler(st)
	cartHandler := h.NewCartHandler(st, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(st, cfg.RequestTimeout)
	authHandler := h.NewAuthHandler(st, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Post("/", ordersHandler.CreateOrder)
			r.Post("/buy-now", ordersHandler.BuyNow)
			r.Post("/{order_id}/pay", ordersHandler.PayOrder)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/code", authHandler.RequestCode)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	// Flush the active ledgers before the process exits.
	if err := st.Flush(shutdownCtx); err != nil {
		log.Printf("failed to flush store: %v", err)
	}
	if err := gw.Close(); err != nil {
		log.Printf("failed to close storage: %v", err)
	}

	log.Println("server exited")
}

func openGateway(ctx context.Context, cfg *Config) (gateway.Gateway, error) {
	switch cfg.StorageBackend {
	case "sqlite":
		return gateway.NewSQLiteGateway(cfg.SQLitePath)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return gateway.NewRedisGateway(client), nil
	case "memory":
		return gateway.NewMemoryGateway(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
