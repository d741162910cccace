package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/inamate/layout-go/internal/auth"
	"github.com/inamate/inamate/layout-go/internal/collab"
	"github.com/inamate/inamate/layout-go/internal/config"
	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/editor"
	"github.com/inamate/inamate/layout-go/internal/layout"
	mw "github.com/inamate/inamate/layout-go/internal/middleware"
)

const playgroundProjectID = "proj_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := layout.Open(ctx, cfg.StoreURL)
	if err != nil {
		slog.Error("open layout store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	authService := auth.NewService(store, cfg.JWTSecret, auth.DefaultTokenTTL)
	authHandler := auth.NewHandler(authService, cfg.DevTokens)
	if cfg.DevTokens {
		slog.Warn("development token endpoint enabled")
	}

	editorOpts := editor.Options{
		GridSize:        cfg.GridSize,
		SnapThreshold:   cfg.SnapThreshold,
		MinSize:         cfg.MinSize,
		RotationStep:    cfg.RotationStep,
		HistoryCapacity: cfg.HistoryCapacity,
		StyleDebounce:   cfg.StyleDebounce,
	}

	// Seed new rooms from the latest saved layout
	seed := func(projectID string) []document.VisualObject {
		if projectID == playgroundProjectID {
			return document.NewSampleObjects()
		}
		// Use a background context since this runs in the hub goroutine
		doc, err := store.Latest(context.Background(), projectID)
		if err != nil {
			if !errors.Is(err, layout.ErrNotFound) {
				slog.Error("load layout for room", "project", projectID, "error", err)
			}
			return nil
		}
		return layout.ObjectsFromDocument(doc)
	}

	hub := collab.NewHub(editorOpts, seed)
	go hub.Run()

	exportLive := func(projectID string) ([]document.LayoutRecord, error) {
		records, err := hub.Export(projectID)
		if errors.Is(err, collab.ErrRoomNotFound) {
			return nil, layout.ErrNoSession
		}
		return records, err
	}
	layoutHandler := layout.NewHandler(store, exportLive)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	authHandler.Register(r)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	layoutHandler.Register(api)

	// WebSocket endpoint
	originHosts := cfg.OriginHosts()
	r.HandleFunc("/ws/layout/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, originHosts)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first so every session drops its pending timers
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", storeKind(cfg.StoreURL))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, originHosts []string) {
	projectID := mux.Vars(r)["projectId"]

	var who collab.Identity

	// Playground project allows anonymous access
	if projectID == playgroundProjectID {
		who = collab.Identity{
			UserID:      "anon-" + uuid.New().String()[:8],
			DisplayName: "Anonymous",
		}
	} else {
		// Auth via query param for real projects
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		user, err := authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		who = collab.Identity{UserID: user.ID, DisplayName: user.DisplayName}
	}

	hub.ServeWS(w, r, projectID, who, originHosts)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func storeKind(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}
