package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kas/internal/core"
)

func settingsCmd(a *app) *cobra.Command {
	var fee, org string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the weekly fee and organization name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book := a.openBook(cmd.Context())
			current := book.Snapshot().Settings

			if cmd.Flags().Changed("fee") || cmd.Flags().Changed("org") {
				weeklyFee := current.WeeklyFee
				if cmd.Flags().Changed("fee") {
					v, err := core.ParseAmount(fee)
					if err != nil {
						return fmt.Errorf("--fee %q: %w", fee, err)
					}
					weeklyFee = v
				}
				orgName := current.OrgName
				if cmd.Flags().Changed("org") {
					orgName = org
				}
				updated, err := book.UpdateSettings(cmd.Context(), weeklyFee, orgName)
				if err != nil {
					return err
				}
				current = updated
			}

			fmt.Fprintf(cmd.OutOrStdout(), "organization: %s\nweekly fee:   %s\n", current.OrgName, a.money(current.WeeklyFee))
			return nil
		},
	}
	cmd.Flags().StringVar(&fee, "fee", "", "new weekly fee")
	cmd.Flags().StringVar(&org, "org", "", "new organization name")
	return cmd
}
