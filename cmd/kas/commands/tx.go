package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kas/internal/core"
)

func txCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "List and delete transactions",
	}
	cmd.AddCommand(txListCmd(a), txRmCmd(a))
	return cmd
}

func txListCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments and expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch filter {
			case core.FilterAll, core.FilterIncome, core.FilterExpense:
			default:
				return fmt.Errorf("--type must be all, income or expense")
			}
			txs := a.openBook(cmd.Context()).Snapshot().Transactions(filter)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tTITLE\tDETAIL\tAMOUNT")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date, tx.Type, tx.Title(), tx.Detail(), a.money(tx.Amount))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter, "type", core.FilterAll, "all, income or expense")
	return cmd
}

func txRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a payment or an expense",
		Long:  "Delete a payment or an expense. The member's last payment date is left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openBook(cmd.Context()).DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
