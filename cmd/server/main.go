package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"

	"discovery/internal/app"
	"discovery/internal/config"
	"discovery/internal/logger"
	"discovery/internal/server"
	"discovery/pkg/graceful"
	"discovery/pkg/overpass"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := graceful.Context(context.Background(), log)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build app", zap.Error(err))
	}
	defer a.Close()

	if status, err := a.Backend.Health(ctx); err != nil {
		log.Warn("backend not reachable yet", zap.String("url", cfg.BackendURL), zap.Error(err))
	} else {
		log.Info("backend reachable", zap.String("status", status.Status))
	}

	srv := server.New(server.Deps{
		Locations:       a.Locations,
		Backend:         a.Backend,
		NewSession:      a.NewSession,
		NewConversation: a.NewConversation,
		Categories:      overpass.Categories(),
		Log:             log.Named("http"),
	})
	if err := srv.Run(ctx, net.JoinHostPort("", cfg.ServerPort)); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
	log.Info("server exited")
}
