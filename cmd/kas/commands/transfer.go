package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup document",
		Long:  "Write the whole ledger as a backup document. The default file name is backup_<date>.json; use -o - for stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := a.openBook(cmd.Context()).ExportAll()
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if output == "" {
				output = doc.FileName()
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d members, %d payments, %d expenses to %s\n",
				len(doc.Members), len(doc.Payments), len(doc.Expenses), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a backup document",
		Long:  "Load a backup document; - reads stdin. Each collection present in the document replaces the current one; settings keys are merged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			book := a.openBook(cmd.Context())
			if err := book.ImportAll(cmd.Context(), data); err != nil {
				return err
			}
			s := book.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "imported: %d members, %d payments, %d expenses\n",
				len(s.Members), len(s.Payments), len(s.Expenses))
			return nil
		},
	}
}

func resetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record and restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all members and transactions; pass --yes to confirm")
			}
			if err := a.openBook(cmd.Context()).ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ledger reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
