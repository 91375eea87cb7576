package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"lead-relay/internal/common/logging"
	"lead-relay/internal/config"
	"lead-relay/internal/database"
	"lead-relay/internal/handlers"
	"lead-relay/internal/middleware"
	"lead-relay/internal/ratelimit"
	"lead-relay/internal/redis"
	"lead-relay/internal/server"
	"lead-relay/internal/zoho"
)

func main() {
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Submission audit log
	db, err := database.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Shared client for both upstreams, with the bounded timeout the
	// synchronous request path depends on.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	tokens := zoho.NewProvider(
		zoho.Credentials{
			ClientID:     cfg.ZohoClientID,
			ClientSecret: cfg.ZohoClientSecret,
			RefreshToken: cfg.ZohoRefreshToken,
		},
		cfg.TokenURL(),
		zoho.WithHTTPClient(httpClient),
		zoho.WithSafetyMargin(cfg.TokenSafetyMargin),
	)

	crm := zoho.NewClient(cfg.ZohoAPIDomain, tokens, zoho.WithClientHTTPClient(httpClient))

	// Redis is optional; without it the relay runs unthrottled.
	var redisClient *redis.Client
	var limiter *ratelimit.Limiter
	if cfg.RedisAddress != "" {
		redisClient, err = redis.NewClient(&redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		limiter = ratelimit.NewLimiter(redisClient, &ratelimit.Config{
			DefaultLimit:  cfg.RateLimitDefault,
			DefaultWindow: cfg.RateLimitWindow,
			Enabled:       cfg.RateLimitEnabled,
		})
	}

	var redisHealth handlers.HealthChecker
	if redisClient != nil {
		redisHealth = redisClient
	}
	h := handlers.New(cfg, crm, db, redisHealth)

	router := mux.NewRouter()

	leadHandler := http.HandlerFunc(h.HandleLead)
	if limiter != nil {
		router.Handle("/api/leads", limiter.HTTPMiddleware(ratelimit.IPBasedKey)(leadHandler))
	} else {
		router.Handle("/api/leads", leadHandler)
	}

	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")
	router.HandleFunc("/api/submissions", h.GetRecentSubmissions).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	handler := middleware.Logging(middleware.CORS(cfg.CORSAllowedOrigin)(router))

	srv := server.New(handler, cfg.Port, cfg.TLSCert, cfg.TLSKey)
	errCh := make(chan error, 1)
	srv.Start(errCh)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed to start: %v", err)
	case <-quit:
	}

	logging.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logging.Info("Server exited")
}
