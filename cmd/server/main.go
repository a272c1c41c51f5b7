package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"projectchat.app/relay/common/id"
	"projectchat.app/relay/common/llm"
	"projectchat.app/relay/common/logger"
	"projectchat.app/relay/common/otel"
	"projectchat.app/relay/core/config"
	"projectchat.app/relay/core/db"
	"projectchat.app/relay/internal/auth"
	"projectchat.app/relay/internal/completion"
	"projectchat.app/relay/internal/http/middleware"
	httprouter "projectchat.app/relay/internal/http/router"
	"projectchat.app/relay/internal/queue"
	"projectchat.app/relay/internal/service"
	"projectchat.app/relay/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "relay starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	titleProducer, err := newTitleProducer(ctx, cfg.Pipeline)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer titleProducer.Close()

	streamClient, err := llm.NewStreamClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "llm client ready", "model", streamClient.Model(), "base_url", cfg.LLM.BaseURL)

	relay := completion.NewRelay(streamClient, completion.Config{
		IdleTimeout: cfg.Chat.StreamIdleTimeout,
		Temperature: llm.Temp(cfg.LLM.Temperature),
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	partial := service.DiscardPartial
	if cfg.Chat.PersistPartialReplies() {
		partial = service.PersistPartial
	}

	stores := store.NewStores(database.Queries(), database)
	services := service.NewServices(stores, relay, titleProducer, service.ExchangeConfig{
		PartialReplies: partial,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, auth.NewGate(cfg.Auth.JWTSecret))

	// No WriteTimeout: chat replies stream for as long as the upstream produces
	// text, bounded by the upstream idle timeout instead.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newTitleProducer returns a no-op producer when Redis is not configured;
// conversations then keep their derived titles.
func newTitleProducer(ctx context.Context, cfg config.PipelineConfig) (queue.Producer, error) {
	if !cfg.Enabled() {
		slog.InfoContext(ctx, "redis not configured, title generation disabled")
		return queue.NoopProducer{}, nil
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.RedisStream)

	return queue.NewRedisProducer(redisClient, cfg.RedisStream, nil), nil
}

func setupRouter(cfg config.Config, services *service.Services, gate *auth.Gate) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.Chat.AllowedOrigin))

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		Verifier: gate,
	})

	return router
}

const banner = `
 ___           _        _      _         _   
| _ \_ _ ___  (_)___ __| |_ __| |_  __ _| |_ 
|  _/ '_/ _ \ | / -_) _|  _/ _| ' \/ _' |  _|
|_| |_| \___/_/ \___\__|\__\__|_||_\__,_|\__|
           |__/                   relay server
`
