package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/geoshape/internal/asset"
	"github.com/inamate/geoshape/internal/auth"
	"github.com/inamate/geoshape/internal/collab"
	"github.com/inamate/geoshape/internal/config"
	"github.com/inamate/geoshape/internal/db"
	"github.com/inamate/geoshape/internal/engine"
	mw "github.com/inamate/geoshape/internal/middleware"
	"github.com/inamate/geoshape/internal/scene"
	"github.com/inamate/geoshape/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	scenes := store.New(pool)
	if err := scenes.Migrate(ctx); err != nil {
		return err
	}

	authService := auth.NewService(cfg.APIKeyHash, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)
	if !authService.Enabled() {
		slog.Warn("API_KEY_HASH not set, API is open to anonymous viewers")
	}

	textures := asset.NewLoader(cfg.AssetDir, cfg.TextureWorkers)
	assetHandler := asset.NewHandler(cfg.AssetDir)

	engineOpts := engine.DefaultOptions()
	engineOpts.RegenerationInterval = cfg.RegenerationInterval
	engineOpts.RegenerationBudget = cfg.RegenerationBudget
	engineOpts.VertexLimit = cfg.VertexLimit
	engineOpts.PickRadius = cfg.PickRadius

	hub := collab.NewHub(ctx, scenes, collab.Options{
		Engine:               engineOpts,
		FPS:                  cfg.FPS,
		SaveDelay:            cfg.SaveDelay,
		SeedSample:           cfg.SeedSample,
		VerticalExaggeration: cfg.VerticalExaggeration,
		Textures:             textures,
	})
	sceneHandler := scene.NewHandler(scene.NewService(hub, scenes))

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Texture files are public so clients can fetch them directly.
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	api.HandleFunc("/assets/{assetId}", assetHandler.HandleDelete).Methods("DELETE")
	sceneHandler.Register(api)

	// WebSocket endpoint
	originPatterns := websocketOrigins(cfg.Origins())
	r.HandleFunc("/ws/scenes/{sceneId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, originPatterns)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := textures.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		err := srv.Shutdown(shutdownCtx)

		// Stop the hub after the server so in-flight edits are saved.
		slog.Info("saving open scenes...")
		return errors.Join(err, hub.Stop())
	})

	return g.Wait()
}

// websocketOrigins turns configured origins into host patterns for the
// websocket origin check.
func websocketOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			out = append(out, o)
			continue
		}
		out = append(out, u.Host)
	}
	return out
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, originPatterns []string) {
	sceneID := mux.Vars(r)["sceneId"]

	// Auth via query param; browsers cannot set headers on websockets.
	viewer, err := authSvc.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	room, err := hub.Room(r.Context(), sceneID)
	if err != nil {
		switch {
		case errors.Is(err, collab.ErrInvalidSceneID):
			http.Error(w, "invalid scene id", http.StatusBadRequest)
		case errors.Is(err, collab.ErrHubStopped):
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		default:
			slog.Error("open scene", "scene", sceneID, "error", err)
			http.Error(w, "failed to open scene", http.StatusInternalServerError)
		}
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	displayName := viewer.Name
	if displayName == "" {
		displayName = "Anonymous"
	}
	client := collab.NewClient(room, conn, viewer.ID, displayName, uuid.New().String())

	ctx := r.Context()
	if err := room.Join(ctx, client); err != nil {
		slog.Error("join scene", "scene", sceneID, "error", err)
		conn.Close(websocket.StatusInternalError, "failed to join scene")
		return
	}
	client.Serve(ctx)
}
