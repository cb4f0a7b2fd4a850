package main

// @title           Tradegate API
// @version         1.0
// @description     Local E*TRADE gateway. Tradegate handles the OAuth1 handshake and token lifecycle and exposes accounts, orders, and market data over a local REST API and an MCP tool server.

// @contact.name   Custodia OSS
// @contact.url    https://github.com/custodia-labs/tradegate/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/v1
// @schemes   http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/tradegate/internal/adapters/driven/auth"
	"github.com/custodia-labs/tradegate/internal/adapters/driven/etrade"
	"github.com/custodia-labs/tradegate/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/tradegate/internal/adapters/driven/redis"
	"github.com/custodia-labs/tradegate/internal/adapters/driven/tokenfile"
	httpadapter "github.com/custodia-labs/tradegate/internal/adapters/driving/http"
	"github.com/custodia-labs/tradegate/internal/adapters/driving/mcp"
	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
	"github.com/custodia-labs/tradegate/internal/core/ports/driving"
	"github.com/custodia-labs/tradegate/internal/core/services"
)

var version = "dev"

func main() {
	// Get run mode from environment (RUN_MODE) or command line arg
	mode := getEnv("RUN_MODE", "http")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	// In mcp mode stdout carries the JSON-RPC frames, so logs must go to
	// stderr in every mode.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)
	log.SetOutput(os.Stderr)

	log.Printf("tradegate %s starting in %s mode", version, mode)

	// Configuration from environment
	sandbox := getEnvBool("ETRADE_SANDBOX", true)
	env := domain.EnvironmentFor(sandbox)

	creds := domain.Credentials{
		ConsumerKey:    getEnv(consumerKeyVar(sandbox), ""),
		ConsumerSecret: getEnv(consumerSecretVar(sandbox), ""),
		Environment:    env,
	}
	if !creds.IsConfigured() {
		log.Printf("Warning: %s / %s not set; OAuth start will fail until configured",
			consumerKeyVar(sandbox), consumerSecretVar(sandbox))
	}

	host := getEnv("HOST", "127.0.0.1")
	port := getEnvInt("PORT", 8000)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Token store (file by default, redis or postgres if configured) =====
	tokenStore, cleanup, err := buildTokenStore(ctx, env)
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}
	defer cleanup()

	// ===== Driven adapters (infrastructure) =====
	oauthFlow := etrade.NewOAuthFlow(etrade.OAuthConfig{Credentials: creds})

	// ===== Services (core business logic) =====
	sessionService := services.NewSessionService(services.SessionConfig{
		Environment: env,
		Flow:        oauthFlow,
		Store:       tokenStore,
		Logger:      logger,
	})

	brokerageClient := etrade.NewClient(sessionService, etrade.ClientConfig{
		Environment: env,
		Logger:      logger,
	})

	brokerageService := services.NewBrokerageService(services.BrokerageConfig{
		Session: sessionService,
		Client:  brokerageClient,
		Logger:  logger,
	})

	// ===== Gateway auth (optional) =====
	var gatewayAuth *auth.Adapter
	if passphrase := getEnv("GATEWAY_AUTH_SECRET", ""); passphrase != "" {
		jwtSecret := getEnv("GATEWAY_JWT_SECRET", "development-secret-change-in-production")
		gatewayAuth, err = auth.NewAdapter(jwtSecret, passphrase)
		if err != nil {
			log.Fatalf("Failed to initialize gateway auth: %v", err)
		}
		log.Println("Gateway auth enabled")
	}

	log.Printf("Runtime config: environment=%s, token_store=%s, auth=%t",
		env, getEnv("TOKEN_STORE", "file"), gatewayAuth != nil)

	switch mode {
	case "http":
		runHTTP(ctx, host, port, env, sessionService, brokerageService, gatewayAuth)

	case "mcp":
		server := mcp.NewServer(mcp.Config{
			Version: version,
			In:      os.Stdin,
			Out:     os.Stdout,
			Logger:  logger,
		}, sessionService, brokerageService)
		if err := server.Run(ctx); err != nil && err != context.Canceled {
			log.Fatalf("MCP server error: %v", err)
		}

	default:
		log.Fatalf("Unknown mode: %s (use: http or mcp)", mode)
	}
}

func runHTTP(
	ctx context.Context,
	host string,
	port int,
	env domain.Environment,
	sessionService driving.SessionService,
	brokerageService driving.BrokerageService,
	gatewayAuth *auth.Adapter,
) {
	cfg := httpadapter.Config{
		Host:        host,
		Port:        port,
		Version:     version,
		Environment: env,
		APIBaseURL:  etrade.APIBaseURLFor(env),
	}

	server := httpadapter.NewServer(cfg, sessionService, brokerageService, gatewayAuth)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("API server starting on %s:%d", host, port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// buildTokenStore selects the TokenStore backend from TOKEN_STORE: file
// (default), redis, or postgres. The cleanup func closes any held
// connections.
func buildTokenStore(ctx context.Context, env domain.Environment) (driven.TokenStore, func(), error) {
	noop := func() {}

	switch backend := getEnv("TOKEN_STORE", "file"); backend {
	case "file":
		path := getEnv("TOKEN_FILE", "")
		if path == "" {
			defaultPath, err := tokenfile.DefaultPath()
			if err != nil {
				return nil, noop, err
			}
			path = defaultPath
		}
		log.Printf("Using file token store: %s", path)
		return tokenfile.NewStore(path), noop, nil

	case "redis":
		redisURL := getEnv("REDIS_URL", "redis://localhost:6379")
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, noop, fmt.Errorf("connect to redis: %w", err)
		}
		log.Println("Using Redis token store")
		return redisadapter.NewTokenStore(client), func() { client.Close() }, nil

	case "postgres":
		databaseURL := getEnv("DATABASE_URL", "")
		if databaseURL == "" {
			return nil, noop, fmt.Errorf("TOKEN_STORE=postgres requires DATABASE_URL")
		}
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(databaseURL))
		if err != nil {
			return nil, noop, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		log.Println("Using PostgreSQL token store")
		return postgres.NewTokenStore(db, env), func() { db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown TOKEN_STORE: %s (use: file, redis, or postgres)", backend)
	}
}

func consumerKeyVar(sandbox bool) string {
	if sandbox {
		return "ETRADE_CONSUMER_KEY_SANDBOX"
	}
	return "ETRADE_CONSUMER_KEY_PROD"
}

func consumerSecretVar(sandbox bool) string {
	if sandbox {
		return "ETRADE_CONSUMER_SECRET_SANDBOX"
	}
	return "ETRADE_CONSUMER_SECRET_PROD"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
