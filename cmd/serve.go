package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/writewithwrabit/calorietrack/dashboard"
	"github.com/writewithwrabit/calorietrack/resolvers"
	"github.com/writewithwrabit/calorietrack/store"
	"github.com/writewithwrabit/calorietrack/web"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.db.Close()
	if servePort != "" {
		env.cfg.Port = servePort
	}

	applied, err := env.db.ApplyMigrations(ctx)
	if err != nil {
		return err
	}
	env.log.Info("schema ready", "applied", applied, "driver", env.cfg.DatabaseDriver)

	entries := store.New(env.db, env.cfg.Location)
	aggregator := dashboard.New(entries, env.log)

	pages, err := web.New(entries, aggregator, env.cfg.Location, env.log)
	if err != nil {
		return err
	}
	api := resolvers.New(entries, aggregator, env.cfg.Location, env.log)

	router := resolvers.NewRouter(resolvers.Options{
		UserID:         env.cfg.UserID,
		AllowedOrigins: env.cfg.AllowedOrigins,
		Logger:         env.log,
	}, api, pages)

	srv := &http.Server{
		Addr:              env.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		env.log.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	env.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
