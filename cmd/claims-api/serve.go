package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/config"
	"github.com/kylejryan/vehicle-claims-api/internal/server"
	"github.com/kylejryan/vehicle-claims-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var release bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the claims HTTP server on $PORT (default 5000).

The repository is chosen by DATABASE_URL:
  mongodb://localhost:27017/claims
  dynamodb://claims?region=eu-west-2
  memory://`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if release {
				gin.SetMode(gin.ReleaseMode)
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&release, "release", false, "run gin in release mode")

	return cmd
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr, "claims-api ", log.LstdFlags|log.LUTC)

	backend, err := storage.Open(ctx, env)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	router := server.New(server.Deps{
		Store:          claims.NewStore(backend),
		Logger:         logger,
		AllowedOrigins: env.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              env.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
