package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensync/internal/core"
	"expensync/internal/session"
)

func (a *App) newReportCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show totals by category and a daily timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, _, err := a.buildReport(cmd, &filters)
			if err != nil {
				return err
			}
			return writeReport(a.out, report)
		},
	}
	filters.bind(cmd)
	return cmd
}

func (a *App) newExportCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the report to the configured spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, env, err := a.buildReport(cmd, &filters)
			if err != nil {
				return err
			}
			exporter, err := a.factory.CreateExporter(cmd.Context(), env.backend)
			if err != nil {
				return err
			}
			res, err := exporter.Export(cmd.Context(), report)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported report to %s (%d totals rows, %d timeline rows)\n",
				res.Destination, res.TotalsRows, res.TimelineRows)
			return nil
		},
	}
	filters.bind(cmd)
	return cmd
}

func (a *App) buildReport(cmd *cobra.Command, filters *filterFlags) (core.Report, *environment, error) {
	spec, err := filters.spec()
	if err != nil {
		return core.Report{}, nil, err
	}
	env, err := a.enter(cmd.Context(), session.TargetReports)
	if err != nil {
		return core.Report{}, nil, err
	}
	if _, err := env.ws.Refresh(cmd.Context()); err != nil {
		return core.Report{}, nil, err
	}
	report, err := env.ws.Report(spec)
	if err != nil {
		return core.Report{}, nil, err
	}
	return report, env, nil
}

func (a *App) newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the known expense categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeCategories(a.out, core.Categories())
		},
	}
}

func (a *App) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <target>",
		Short: "Tell whether a view may be opened with the stored session",
		Long:  "Targets: home, add-expense, view-expenses, expense-details, reports, profile.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.environment(cmd.Context())
			if err != nil {
				return err
			}
			d := env.gate.Check(cmd.Context(), session.Target(args[0]))
			if d.Allowed {
				fmt.Fprintf(a.out, "%s: allowed (%s)\n", args[0], d.Reason)
				return nil
			}
			fmt.Fprintf(a.out, "%s: denied (%s), redirect to %s\n", args[0], d.Reason, d.Redirect)
			return nil
		},
	}
}
