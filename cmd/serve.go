package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/handler"
	"newsdesk/internal/redisclient"
	"newsdesk/internal/runstate"
	"newsdesk/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// serveCmd runs the review API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the article review API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := context.Background()

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		st := store.NewArticleStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		runs := runstate.New(rdb)

		h := handler.NewArticleHandler(st, runs)
		router := handler.NewRouter(h, cfg.Image.StorageDir)
		srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("serve: listening", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			slog.Info("serve: shutting down", "signal", sig.String())
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
