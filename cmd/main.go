package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Conversly/design-assistant/internal/config"
	"github.com/Conversly/design-assistant/internal/core"
	"github.com/Conversly/design-assistant/internal/llm"
	"github.com/Conversly/design-assistant/internal/loaders"
	"github.com/Conversly/design-assistant/internal/routes"
	"github.com/Conversly/design-assistant/internal/session"
	"github.com/Conversly/design-assistant/internal/utils"
)

const tokenSweepInterval = 10 * time.Minute

func main() {
	os.Exit(run())
}

// run wires and serves the application. Deferred cleanup (usage drain,
// database close, logger sync) always runs before the exit code is returned.
func run() int {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("Warning: Error loading .env file", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return 1
	}

	cleanup := utils.InitLogger(cfg)
	defer cleanup()

	utils.Zlog.Info("Starting application",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := routes.Dependencies{}

	// Usage recording is optional.
	var usage *core.UsageSaver
	if cfg.DatabaseURL != "" {
		db, err := loaders.NewPostgresClient(cfg.DatabaseURL, cfg.WorkerCount, cfg.BatchSize)
		if err != nil {
			utils.Zlog.Error("Failed to create database client", zap.Error(err))
			return 1
		}
		defer func() {
			if err := db.Close(); err != nil {
				utils.Zlog.Error("Error closing database connection", zap.Error(err))
			}
		}()
		usage = core.NewUsageSaver(db, cfg.BatchSize, 0)
		defer usage.Stop()
		deps.DB = db
	} else {
		utils.Zlog.Info("DATABASE_URL not set, relay usage is not recorded")
	}
	deps.Usage = usage

	if len(cfg.GeminiAPIKeys) > 0 {
		chatModel, err := llm.NewMultiKeyChatModel(ctx, cfg.GeminiAPIKeys, cfg.GeminiModel, nil, nil)
		if err != nil {
			utils.Zlog.Error("Failed to create Gemini chat model", zap.Error(err))
			return 1
		}
		deps.Generator = llm.NewGenerator(chatModel)
	} else {
		utils.Zlog.Warn("GEMINI_API_KEYS not set, the relay will reject every request")
	}

	deps.Tokens = utils.NewTokenRegistry(cfg.RelayTokenTTL, cfg.RelayTokens)
	deps.Tokens.StartAutoSweep(ctx, tokenSweepInterval)
	defer deps.Tokens.StopAutoSweep()

	deps.Sessions = session.NewManager(cfg, deps.Tokens)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	routes.SetupRoutes(router, deps, cfg)

	// WriteTimeout stays zero: preview websockets are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := serve(ctx, srv, deps.Sessions.Close); err != nil {
		utils.Zlog.Error("Server stopped with error", zap.Error(err))
		return 1
	}

	utils.Zlog.Info("Server exited")
	return 0
}

// serve runs srv until ctx is done or the listener fails, then calls
// beforeShutdown and shuts srv down gracefully.
func serve(ctx context.Context, srv *http.Server, beforeShutdown func()) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		utils.Zlog.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		utils.Zlog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// sessions end while the listener still serves their relay calls
		beforeShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	return eg.Wait()
}
