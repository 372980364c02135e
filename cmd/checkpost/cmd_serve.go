package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"checkpost/internal/config"
	"checkpost/internal/report"
	"checkpost/internal/storage"
	"checkpost/internal/webui"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		backend string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reporting dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("metrics-backend") {
				cfg.Metrics.Backend = backend
			}
			if err := a.check(cmd.ErrOrStderr(), config.ScopeServe); err != nil {
				return err
			}

			handler, flush := setupMetrics(cfg.Metrics, cfg.Job, a.log)
			defer flush()

			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := webui.NewServer(webui.Config{Addr: cfg.Server.Addr, Metrics: handler}, svc, a.log)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&backend, "metrics-backend", "", "metrics backend: prometheus, datadog or none")
	return cmd
}

// openService connects to the sink and wraps it in a report.Service. The
// service owns the connection.
func (a *app) openService(ctx context.Context) (*report.Service, error) {
	db := a.cfg.Storage.DB
	repo, err := storage.New(ctx, storage.Config{
		Kind:     a.cfg.Storage.Kind,
		DSN:      db.DSN,
		PoolSize: db.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	return report.NewService(repo, report.Options{
		Table:        db.Table,
		PoolSize:     db.PoolSize,
		FailFast:     db.PoolWait == config.PoolWaitFailFast,
		QueryTimeout: db.QueryTimeout(),
		Job:          a.cfg.Job,
	}, a.log), nil
}
