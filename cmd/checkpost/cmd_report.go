package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"checkpost/internal/config"
	"checkpost/internal/report"
	"checkpost/internal/tableprint"
)

// filterFlags binds one string flag per report.Params entry.
type filterFlags map[string]*string

func addFilterFlags(cmd *cobra.Command) filterFlags {
	ff := filterFlags{}
	for _, p := range report.Params {
		var v string
		usage := p.Name + " filter"
		switch p.Kind {
		case "date":
			usage += " (YYYY-MM-DD)"
		case "bool":
			usage += " (true or false)"
		}
		cmd.Flags().StringVar(&v, p.Name, "", usage)
		ff[p.Name] = &v
	}
	return ff
}

func (ff filterFlags) filter() (report.Filter, error) {
	return report.ParseFilter(func(k string) string {
		if v, ok := ff[k]; ok {
			return *v
		}
		return ""
	})
}

func writeResult(w io.Writer, format string, res report.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "", "table":
		if err := tableprint.Write(w, res.Columns, res.Rows); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "(%d rows)\n", res.Len())
		return err
	default:
		return fmt.Errorf("unknown --format %q", format)
	}
}

func newReportCmd(a *app) *cobra.Command {
	var format string
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Run one catalog report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			if err := a.check(cmd.ErrOrStderr(), config.ScopeStorage); err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Run(ctx, args[0], f)
			if err != nil {
				return err
			}
			if format != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Title)
			}
			return writeResult(cmd.OutOrStdout(), format, res)
		},
	}
	ff = addFilterFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	var format string
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "browse",
		Short: fmt.Sprintf("Print the latest %d stops matching the filters", report.BrowseLimit),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			if err := a.check(cmd.ErrOrStderr(), config.ScopeStorage); err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Browse(ctx, f)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), format, res)
		},
	}
	ff = addFilterFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	return cmd
}

func newReportsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the report catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := report.NewCatalog()
			var rows [][]any
			for _, e := range cat.Entries() {
				chart := ""
				if e.Chart != nil {
					chart = e.Chart.X + " x " + e.Chart.Y
				}
				rows = append(rows, []any{e.ID, e.Category, e.Title, chart})
			}
			return tableprint.Write(cmd.OutOrStdout(), []string{"id", "category", "title", "chart"}, rows)
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.check(cmd.OutOrStdout(), config.ScopeAll); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}
