package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kas/internal/core"
)

func membersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List and manage members",
	}
	cmd.AddCommand(
		membersListCmd(a),
		membersAddCmd(a),
		membersEditCmd(a),
		membersRmCmd(a),
		membersUnpaidCmd(a),
	)
	return cmd
}

func membersListCmd(a *app) *cobra.Command {
	var search, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book := a.openBook(cmd.Context())
			state := book.Snapshot()

			var members []core.Member
			switch status {
			case "", core.FilterAll:
				members = state.SearchMembers(search)
			case core.FilterPaid, core.FilterUnpaid:
				ids := map[string]bool{}
				for _, m := range state.FilterByPayment(status, book.Now()) {
					ids[m.ID] = true
				}
				for _, m := range state.SearchMembers(search) {
					if ids[m.ID] {
						members = append(members, m)
					}
				}
			default:
				return fmt.Errorf("--status must be all, paid or unpaid")
			}
			return a.printMembers(cmd.OutOrStdout(), members, book.Now)
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "match name or division")
	cmd.Flags().StringVar(&status, "status", "", "all, paid or unpaid (active members only)")
	return cmd
}

func membersUnpaidCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpaid",
		Short: "List active members who have not paid in the last seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book := a.openBook(cmd.Context())
			return a.printMembers(cmd.OutOrStdout(), book.Snapshot().UnpaidActiveMembers(book.Now()), book.Now)
		},
	}
}

func membersAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <division>",
		Short: "Add an active member joining today",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.openBook(cmd.Context()).UpsertMember(cmd.Context(), "", args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s (%s)\n", m.ID, m.Name, m.Division)
			return nil
		},
	}
}

func membersEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <name> <division>",
		Short: "Rename a member or move them to another division",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			book := a.openBook(cmd.Context())
			if _, ok := book.Snapshot().Member(args[0]); !ok {
				return &core.NotFoundError{Kind: "member", ID: args[0]}
			}
			m, err := book.UpsertMember(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s (%s)\n", m.ID, m.Name, m.Division)
			return nil
		},
	}
}

func membersRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a member and all of their payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openBook(cmd.Context()).DeleteMember(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func (a *app) printMembers(out io.Writer, members []core.Member, now func() time.Time) error {
	asOf := now()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIVISION\tSTATUS\tLAST PAYMENT\tPAID")
	for _, m := range members {
		last := m.LastPayment.String()
		if last == "" {
			last = "-"
		}
		paid := "no"
		if core.IsPaidUp(m, asOf) {
			paid = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Division, m.Status, last, paid)
	}
	return tw.Flush()
}
