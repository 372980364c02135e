package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"checkpost/internal/config"
	"checkpost/internal/logging"
)

// errInvalidConfig is returned after the issues have been printed.
var errInvalidConfig = errors.New("configuration is invalid")

// app is the state shared by every subcommand: the resolved config and the
// process logger, both built in PersistentPreRunE.
type app struct {
	cfgPath   string
	verbose   bool
	logFormat string

	// storage overrides, applied only when set on the command line.
	dsn         string
	storageKind string
	table       string
	poolSize    int

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "checkpost",
		Short:         "Traffic-stop ETL and reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config file (.json, .yaml or .yml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")
	pf.StringVar(&a.logFormat, "log-format", "console", "log encoding: console or json")
	pf.StringVar(&a.dsn, "dsn", "", "storage DSN (overrides "+config.EnvDSN+")")
	pf.StringVar(&a.storageKind, "storage", "", "storage kind: sqlite, postgres, mysql or mssql")
	pf.StringVar(&a.table, "table", "", "stops table name")
	pf.IntVar(&a.poolSize, "pool-size", 0, "maximum concurrent queries")

	root.AddCommand(
		newLoadCmd(a),
		newServeCmd(a),
		newReportCmd(a),
		newReportsCmd(a),
		newBrowseCmd(a),
		newValidateCmd(a),
	)
	return root
}

// prepare resolves the config (file, then environment, then flags) and builds
// the logger.
func (a *app) prepare(cmd *cobra.Command) error {
	log, err := logging.New(a.verbose, a.logFormat)
	if err != nil {
		return err
	}
	a.log = log

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dsn") {
		cfg.Storage.DB.DSN = a.dsn
	}
	if flags.Changed("storage") {
		cfg.Storage.Kind = a.storageKind
	}
	if flags.Changed("table") {
		cfg.Storage.DB.Table = a.table
	}
	if flags.Changed("pool-size") {
		cfg.Storage.DB.PoolSize = a.poolSize
	}
	a.cfg = cfg
	return nil
}

// check validates the config for scope and prints every issue to w.
func (a *app) check(w io.Writer, scope config.Scope) error {
	issues := config.Validate(a.cfg, scope)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	return nil
}
