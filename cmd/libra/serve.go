package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"libraStats/internal/api"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         a.cfg.Listen,
		Handler:      api.NewRouter(a.engine, a.logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var g run.Group
	g.Add(func() error {
		a.logger.Info("server starting", zap.String("listen", a.cfg.Listen))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	g.Add(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		return nil
	}, func(error) {
		stop()
	})
	return g.Run()
}
