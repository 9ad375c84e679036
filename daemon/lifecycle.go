package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sage-x-project/sgnd/internal/logger"
)

// shutdownGrace bounds how long graceful shutdown waits before forcing
// the process to exit.
const shutdownGrace = 2 * time.Second

// Run starts the HTTP server built from router, blocks until a SIGINT
// or SIGTERM is received, and then drains the daemon within
// shutdownGrace before returning.
func (d *Daemon) Run(router http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", d.Cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	d.Start()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server error: %w", err)
	case <-sigCh:
		d.Log.Info("shutdown_signal_received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	d.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		d.Log.Error("http_shutdown_forced", logger.Err(err))
		srv.Close()
	}

	return nil
}
