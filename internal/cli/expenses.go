package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"expensync/internal/api"
	"expensync/internal/core"
	"expensync/internal/session"
)

// datetimeLayouts are accepted by --at, in the configured timezone.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type filterFlags struct {
	category string
	keyword  string
	date     string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "", "Only expenses in this category (id or name)")
	cmd.Flags().StringVar(&f.keyword, "keyword", "", "Only expenses whose description contains this text")
	cmd.Flags().StringVar(&f.date, "date", "", "Only expenses on this day (YYYY-MM-DD)")
}

func (f *filterFlags) spec() (core.FilterSpec, error) {
	var spec core.FilterSpec
	if f.category != "" {
		spec.Category = core.StringFilter(core.ResolveCategory(f.category).Key())
	}
	if f.keyword != "" {
		spec.Keyword = core.StringFilter(f.keyword)
	}
	if f.date != "" {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return core.FilterSpec{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", f.date)
		}
		spec.Date = core.DateFilter(d)
	}
	return spec, nil
}

type expenseFlags struct {
	category    string
	amount      string
	at          string
	description string
	receipt     string
}

func (f *expenseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "", "Category id or name")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVar(&f.at, "at", "", "When the expense occurred (YYYY-MM-DD[ HH:MM])")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.receipt, "receipt", "", "Path to a JPEG, PNG or PDF receipt")
}

// fields returns the provided fields. Flags left empty stay unset so that
// edits keep the prior values.
func (f *expenseFlags) fields(loc *time.Location) (api.ExpenseFields, error) {
	var fields api.ExpenseFields
	if f.category != "" {
		fields.Category = core.ResolveCategory(f.category)
	}
	if f.amount != "" {
		m, err := core.ParseAmount(f.amount)
		if err != nil {
			return api.ExpenseFields{}, fmt.Errorf("invalid --amount %q: %w", f.amount, err)
		}
		fields.Amount = &m
	}
	if f.at != "" {
		t, err := parseDatetime(f.at, loc)
		if err != nil {
			return api.ExpenseFields{}, err
		}
		fields.OccurredAt = t
	}
	fields.Description = strings.TrimSpace(f.description)
	return fields, nil
}

func (f *expenseFlags) loadReceipt() (*api.Receipt, error) {
	if f.receipt == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.receipt)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	return &api.Receipt{Filename: f.receipt, Data: data}, nil
}

func parseDatetime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: want YYYY-MM-DD[ HH:MM]", s)
}

func (a *App) newListCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			env, err := a.enter(cmd.Context(), session.TargetViewExpenses)
			if err != nil {
				return err
			}
			if _, err := env.ws.Refresh(cmd.Context()); err != nil {
				return err
			}
			visible, err := env.ws.Visible(spec)
			if err != nil {
				return err
			}
			return writeExpenses(a.out, visible)
		},
	}
	filters.bind(cmd)
	return cmd
}

func (a *App) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <expense-id>",
		Short: "Show one expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.enter(cmd.Context(), session.TargetExpenseDetails)
			if err != nil {
				return err
			}
			e, err := env.ws.Expense(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeExpense(a.out, e)
		},
	}
}

func (a *App) newAddCmd() *cobra.Command {
	var flags expenseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := flags.fields(a.loc)
			if err != nil {
				return err
			}
			if fields.OccurredAt.IsZero() {
				fields.OccurredAt = time.Now().In(a.loc)
			}
			receipt, err := flags.loadReceipt()
			if err != nil {
				return err
			}
			env, err := a.enter(cmd.Context(), session.TargetAddExpense)
			if err != nil {
				return err
			}
			created, err := env.ws.Create(cmd.Context(), fields, receipt)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, api.MsgExpenseAdded)
			if created.ID != "" {
				fmt.Fprintf(a.out, "ID: %s\n", created.ID)
			}
			return nil
		},
	}
	flags.bind(cmd)
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func (a *App) newEditCmd() *cobra.Command {
	var flags expenseFlags
	cmd := &cobra.Command{
		Use:   "edit <expense-id>",
		Short: "Edit an expense; omitted fields keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := flags.fields(a.loc)
			if err != nil {
				return err
			}
			receipt, err := flags.loadReceipt()
			if err != nil {
				return err
			}
			env, err := a.enter(cmd.Context(), session.TargetExpenseDetails)
			if err != nil {
				return err
			}
			if _, err := env.ws.Update(cmd.Context(), args[0], fields, receipt); err != nil {
				return err
			}
			fmt.Fprintln(a.out, api.MsgExpenseUpdated)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *App) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <expense-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete one or more expenses",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.enter(cmd.Context(), session.TargetViewExpenses)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				err = env.ws.Delete(cmd.Context(), args[0])
			} else {
				err = env.ws.DeleteMany(cmd.Context(), args)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, api.MsgExpenseDeleted)
			return nil
		},
	}
}
