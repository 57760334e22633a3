package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"sparked-server/api"
	"sparked-server/auth"
	"sparked-server/config"
	"sparked-server/loghandler"
	"sparked-server/media"
	"sparked-server/rooms"
	"sparked-server/storage"
	"sparked-server/ws"
)

func pickStore(ctx context.Context, cfg *config.Config) (storage.GameStore, error) {
	retention := cfg.Retention()
	if cfg.DatabaseURL != "" {
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL, retention)
	}
	if cfg.RedisURL != "" {
		return storage.NewRedisStore(ctx, cfg.RedisURL, retention)
	}
	slog.Warn("no DATABASE_URL or REDIS_URL set, games are kept in memory only", "tag", "main")
	return storage.NewMemoryStore(retention), nil
}

func main() {
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables", "tag", "main")
	}

	cfg := config.Load()
	ctx := context.Background()

	if cfg.AuthBaseURL == "" {
		slog.Warn("AUTH_BASE_URL is not set, all sessions run as free tier", "tag", "main")
	}
	slog.Info("configuration loaded", "tag", "main",
		"port", cfg.Port, "handSize", cfg.HandSize, "deckCopies", cfg.DeckCopies,
		"retentionHours", cfg.RetentionHours, "freeSessionMinutes", cfg.FreeSessionMinutes)

	store, err := pickStore(ctx, cfg)
	if err != nil {
		slog.Error("initializing game store", "tag", "main", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	mediaStore, err := media.NewDiskStore(cfg.UploadDir)
	if err != nil {
		slog.Error("initializing media store", "tag", "main", "err", err)
		os.Exit(1)
	}

	registry := rooms.New(store, cfg)
	go registry.RunJanitor(ctx)

	hub := ws.NewHub(cfg, registry, &auth.Verifier{BaseURL: cfg.AuthBaseURL})
	go hub.Run(ctx)

	handler := api.NewHandler(cfg, registry, mediaStore, hub)
	router := api.NewRouter(handler)
	router.HandleFunc("/ws", hub.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("server listening", "tag", "main", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
}
