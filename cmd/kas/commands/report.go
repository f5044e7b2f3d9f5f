package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kas/internal/core"
)

func reportCmd(a *app) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Sum income and expenses over a date range",
		Long:  "Sum income and expenses dated between --start and --end, both days included. The range defaults to the current month up to today.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			to, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}

			book := a.openBook(cmd.Context())
			today := core.DateOf(book.Now())
			if from.IsEmpty() {
				from = core.NewDate(today.Year(), int(today.Month()), 1)
			}
			if to.IsEmpty() {
				to = today
			}
			if to.Compare(from) < 0 {
				return fmt.Errorf("--end %s is before --start %s", to, from)
			}

			state := book.Snapshot()
			return a.render(cmd.OutOrStdout(), a.reportMarkdown(state, state.ReportTotals(from, to)))
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD")
	return cmd
}

func (a *app) reportMarkdown(state core.State, r core.ReportTotals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s report\n\n", state.Settings.OrgName)
	fmt.Fprintf(&b, "%s to %s, %d transactions\n\n", r.Start, r.End, r.Count)
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Income | %s |\n", a.money(r.Income))
	fmt.Fprintf(&b, "| Expense | %s |\n", a.money(r.Expense))
	fmt.Fprintf(&b, "| Balance | %s |\n", a.money(r.Balance))
	return b.String()
}
