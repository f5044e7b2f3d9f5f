package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kas/internal/core"
)

func payCmd(a *app) *cobra.Command {
	var date, notes string
	cmd := &cobra.Command{
		Use:   "pay <member-id> <amount>",
		Short: "Record a dues payment",
		Long:  "Record a dues payment. The amount must be at least the weekly fee and may use thousands separators, e.g. \"Rp 2.000\".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			d, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			p, err := a.openBook(cmd.Context()).RecordPayment(cmd.Context(), args[0], amount, d, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s: %s paid %s on %s\n", p.ID, p.MemberName, a.money(p.Amount), p.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "note stored with the payment")
	return cmd
}

func expenseCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "expense <category> <amount> <description>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			d, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			e, err := a.openBook(cmd.Context()).RecordExpense(cmd.Context(), args[0], amount, d, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s: %s %s on %s\n", e.ID, e.Category, a.money(e.Amount), e.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "expense date YYYY-MM-DD (default today)")
	return cmd
}
