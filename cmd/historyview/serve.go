package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"historyview/internal/config"
	"historyview/internal/logger"
	"historyview/internal/server"
	"historyview/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the history API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cfg.Formatter()
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if fs, ok := store.(*storage.FileStore); ok && cfg.RefreshInterval() > 0 {
			refresher := storage.NewRefresher(cfg.RefreshInterval(), fs, logger.WithComponent(log, "refresher"))
			refresher.Start()
			defer refresher.Stop()
		}

		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(server.Options{
			Addr:           addr,
			PageSize:       cfg.PageSize,
			MaxPageSize:    config.MaxPageSize,
			HideRecipients: cfg.HideRecipients,
		}, store, format, logger.WithComponent(log, "http"))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown")
			}
		}()

		log.Info().Str("addr", addr).Bool("postgres", cfg.UsePostgres()).Int("page_size", cfg.PageSize).Msg("history view listening")
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address for the web server (overrides listen_addr)")
}
