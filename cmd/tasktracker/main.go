package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"tasktracker/internal/config"
	"tasktracker/internal/logger"
	"tasktracker/internal/server"
	"tasktracker/internal/storage"
)

func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.New(os.Stderr, "tasktracker", "info").WithError(err).Error("invalid configuration")
		os.Exit(2)
	}

	log := logger.New(os.Stdout, "tasktracker", cfg.LogLevel)
	log.WithField("store", cfg.Store.Driver).Info("starting task tracker")

	store, err := storage.Open(context.Background(), cfg.Store, log)
	if err != nil {
		log.WithError(err).Error("unable to open store")
		os.Exit(1)
	}

	srv := server.New(store, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", httpServer.Addr).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped unexpectedly")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info("shutting down server")
				shutdownErr := httpServer.Shutdown(ctx)
				return errors.Join(shutdownErr, store.Close())
			},
		},
	)

	exitCode := <-wait
	log.WithField("exit_code", exitCode).Info("server stopped")
	os.Exit(exitCode)
}
