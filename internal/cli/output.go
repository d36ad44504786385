package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"expensync/internal/core"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeExpenses(w io.Writer, expenses []core.Expense) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, "No expenses.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tWHEN\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.OccurredAt.Format(timeLayout), e.Category.Label(), e.Amount, e.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d expenses, total %s\n", len(expenses), core.SumAmounts(expenses))
	return err
}

func writeExpense(w io.Writer, e core.Expense) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "When:\t%s\n", e.OccurredAt.Format(timeLayout))
	fmt.Fprintf(tw, "Category:\t%s\n", e.Category.Label())
	fmt.Fprintf(tw, "Amount:\t%s\n", e.Amount)
	fmt.Fprintf(tw, "Description:\t%s\n", e.Description)
	if e.Receipt != nil && e.Receipt.URL != "" {
		fmt.Fprintf(tw, "Receipt:\t%s\n", e.Receipt.URL)
	}
	return tw.Flush()
}

func writeReport(w io.Writer, report core.Report) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT")
	for _, c := range report.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Amount)
	}
	fmt.Fprintf(tw, "Total\t%s\n", report.Total)
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "DAY\tAMOUNT")
	for _, d := range report.Timeline {
		fmt.Fprintf(tw, "%s\t%s\n", d.Date, d.Amount)
	}
	return tw.Flush()
}

func writeCategories(w io.Writer, categories []core.Category) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
	}
	return tw.Flush()
}
