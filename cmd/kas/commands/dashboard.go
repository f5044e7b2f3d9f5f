package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kas/internal/core"
)

func dashboardCmd(a *app) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, unpaid members and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book := a.openBook(cmd.Context())
			state := book.Snapshot()
			return a.render(cmd.OutOrStdout(), a.dashboardMarkdown(state, len(state.UnpaidActiveMembers(book.Now())), recent))
		},
	}
	cmd.Flags().IntVarP(&recent, "recent", "n", 10, "number of recent transactions to show")
	return cmd
}

func (a *app) dashboardMarkdown(state core.State, unpaid, recent int) string {
	totals := state.DashboardTotals()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", state.Settings.OrgName)
	fmt.Fprintf(&b, "| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Income | %s |\n", a.money(totals.Income))
	fmt.Fprintf(&b, "| Expense | %s |\n", a.money(totals.Expense))
	fmt.Fprintf(&b, "| Balance | %s |\n", a.money(totals.Balance))
	fmt.Fprintf(&b, "| Members | %d |\n", totals.Members)
	fmt.Fprintf(&b, "| Unpaid this week | %d |\n", unpaid)
	fmt.Fprintf(&b, "| Weekly fee | %s |\n\n", a.money(state.Settings.WeeklyFee))

	feed := state.ActivityFeed(recent)
	b.WriteString("## Recent activity\n\n")
	if len(feed) == 0 {
		b.WriteString("_No transactions yet._\n")
		return b.String()
	}
	b.WriteString("| Date | Type | Summary | Amount |\n|---|---|---|---:|\n")
	for _, tx := range feed {
		sign := "+"
		if tx.Type == core.TypeExpense {
			sign = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s%s |\n", tx.Date, tx.Type, escapeCell(tx.Summary()), sign, a.money(tx.Amount))
	}
	return b.String()
}

// escapeCell keeps user text from breaking a markdown table row.
func escapeCell(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ", "\r", " ").Replace(s)
}
