// MatCorner - AI grappling corner coach server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkozyrev/matcorner/internal/ai"
	"github.com/dkozyrev/matcorner/internal/api"
	"github.com/dkozyrev/matcorner/internal/coach"
	"github.com/dkozyrev/matcorner/internal/config"
	"github.com/dkozyrev/matcorner/internal/middleware"
	"github.com/dkozyrev/matcorner/internal/session"
	"github.com/dkozyrev/matcorner/internal/video"
	"github.com/dkozyrev/matcorner/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		slog.Error("Failed to create temp directory", "error", err, "dir", cfg.TempDir)
		os.Exit(1)
	}

	// Initialize dependencies.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := ai.NewGemini(ctx, ai.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		TextModel:   cfg.TextModel,
		VisionModel: cfg.VisionModel,
		ImageModel:  cfg.ImageModel,
		ImageDir:    cfg.TempDir,
	})
	if err != nil {
		slog.Error("Failed to initialize AI client", "error", err)
		os.Exit(1)
	}
	slog.Info("AI client initialized", "text_model", cfg.TextModel, "vision_model", cfg.VisionModel)

	extractor := video.NewExtractor(cfg.FFmpegPath, cfg.FFprobePath)
	sessions := session.NewManager(cfg.TempDir)
	coachSvc := coach.NewService(generator, extractor, sessions)

	// Initialize handlers.
	handler := api.NewHandler(coachSvc, sessions, cfg)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	handler.RegisterRoutes(r)

	// WebSocket persona chat.
	r.Get("/ws/chat", handler.HandleChatSocket)

	// Prometheus metrics.
	r.Handle("/metrics", promhttp.Handler())

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: streaming chat rides on the WebSocket, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start session TTL worker.
	sessions.StartTTLWorker(ctx, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
