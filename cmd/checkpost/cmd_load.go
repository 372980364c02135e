package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"checkpost/internal/config"
	"checkpost/internal/datasource"
	"checkpost/internal/etl"
	"checkpost/internal/load"
	"checkpost/internal/storage"
)

func newLoadCmd(a *app) *cobra.Command {
	var (
		batchSize int
		watch     bool
		debounce  time.Duration
		backend   string
		gateway   string
	)
	cmd := &cobra.Command{
		Use:   "load [file|http(s)://...|s3://bucket/key]",
		Short: "Clean a CSV export and replace the stops table with it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg
			if len(args) == 1 {
				if err := cfg.Source.SetURI(args[0]); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("batch-size") {
				cfg.Runtime.BatchSize = batchSize
			}
			if flags.Changed("metrics-backend") {
				cfg.Metrics.Backend = backend
			}
			if flags.Changed("pushgateway-url") {
				cfg.Metrics.PushGatewayURL = gateway
			}
			if err := a.check(cmd.ErrOrStderr(), config.ScopeLoad); err != nil {
				return err
			}
			if watch && cfg.Source.Kind != "file" {
				return fmt.Errorf("--watch needs a file source, got %s", cfg.Source.Kind)
			}

			_, flush := setupMetrics(cfg.Metrics, cfg.Job, a.log)
			defer flush()

			ctx := cmd.Context()
			if err := a.loadOnce(ctx, cmd.OutOrStdout()); err != nil {
				if !watch {
					return err
				}
				a.log.Error("load failed", zap.Error(err))
			}
			if !watch {
				return nil
			}
			return watchFile(ctx, cfg.Source.File.Path, debounce, a.log, func(ctx context.Context) {
				if err := a.loadOnce(ctx, cmd.OutOrStdout()); err != nil {
					a.log.Error("load failed", zap.Error(err))
				}
				flush()
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&batchSize, "batch-size", 0, "rows per insert batch")
	f.BoolVar(&watch, "watch", false, "reload whenever the source file changes")
	f.DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a watched change is loaded")
	f.StringVar(&backend, "metrics-backend", "", "metrics backend: pushgateway, prometheus, datadog or none")
	f.StringVar(&gateway, "pushgateway-url", "", "Pushgateway base URL")
	return cmd
}

// loadOnce runs the pipeline against a fresh connection and prints the
// summary line.
func (a *app) loadOnce(ctx context.Context, out io.Writer) error {
	cfg := a.cfg
	src, err := datasource.FromConfig(cfg.Source)
	if err != nil {
		return err
	}
	repo, err := storage.New(ctx, storage.Config{
		Kind:     cfg.Storage.Kind,
		DSN:      cfg.Storage.DB.DSN,
		PoolSize: cfg.Storage.DB.PoolSize,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	a.log.Info("pipeline",
		zap.String("source", src.String()),
		zap.String("parser", cfg.Parser.Kind),
		zap.String("storage", cfg.Storage.Kind),
		zap.String("table", cfg.Storage.DB.Table))

	loader := load.New(repo, load.Options{
		Table:         cfg.Storage.DB.Table,
		BatchSize:     cfg.Runtime.BatchSize,
		ChannelBuffer: cfg.Runtime.ChannelBuffer,
		Job:           cfg.Job,
	}, a.log)
	sum, err := etl.New(src, cfg.Parser, loader, cfg.Job, a.log).Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info("load complete", sum.LogFields()...)
	fmt.Fprintf(out, "summary: processed=%d parse_errors=%d recovered=%d committed=%d batches=%d run_id=%s elapsed=%s\n",
		sum.Processed, sum.ParseErrors, sum.Clean.Recovered(), sum.Load.Committed, sum.Load.Batches,
		sum.Load.RunID, sum.Duration.Truncate(time.Millisecond))
	return nil
}
