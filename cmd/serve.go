package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giygas/drugcost-api/config"
	"github.com/giygas/drugcost-api/data"
	"github.com/giygas/drugcost-api/handlers"
	"github.com/giygas/drugcost-api/health"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/scheduler"
	"github.com/giygas/drugcost-api/server"
	"github.com/giygas/drugcost-api/tools"
	"github.com/giygas/drugcost-api/validation"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the catalogs and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	// Scheduled refreshes of the sqlite backend rebuild the databases from the raw files
	loader := a.loader()
	var refresher interfaces.Loader = loader
	if a.cfg.CatalogBackend == config.BackendSQLite {
		refresher = loader.WithRebuild()
	}

	sched := scheduler.NewScheduler(store, loader, refresher, a.cfg.RefreshSchedule)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()
	defer func() {
		if err := store.Current().Close(); err != nil {
			logging.Warn("Failed to close catalogs", "error", err)
		}
	}()

	validator := validation.NewDataValidator()
	h := handlers.NewHTTPHandler(
		tools.New(store, a.pipelineOptions(), validator),
		store,
		validator,
		health.NewHealthChecker(store, a.cfg.RefreshEnabled()),
	)
	srv := server.NewServer(a.cfg, h)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
