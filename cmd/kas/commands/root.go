// Package commands implements the kas command line.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"kas/internal/backend"
	"kas/internal/cli"
	"kas/internal/config"
	"kas/internal/core"
	"kas/internal/ledger"
	"kas/internal/log"
)

// app is the state shared by every command of one invocation.
type app struct {
	envFile  string
	logLevel string
	plain    bool

	cfg     *config.Config
	logger  *log.Logger
	backend *backend.BackendResult
}

func Execute() error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "kas",
		Short:        "Dues and expense ledger for a small organization",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.plain, "plain", false, "print markdown without terminal styling")

	root.AddCommand(
		serveCmd(a),
		membersCmd(a),
		payCmd(a),
		expenseCmd(a),
		txCmd(a),
		dashboardCmd(a),
		reportCmd(a),
		exportCmd(a),
		importCmd(a),
		resetCmd(a),
		settingsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cli.LoadEnvFile(a.envFile)

	cfg := config.Load()
	switch {
	case a.logLevel != "":
		cfg.LogLevel = a.logLevel
	case cmd.Name() != "serve":
		// One-shot commands only report problems.
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentCLI)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(a.logger).CreateBackend(cmd.Context(), bcfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	a.backend = res
	return nil
}

func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("Failed to close backend", log.FieldError, err)
		}
		a.backend = nil
	}
}

// openBook loads the ledger from the configured slot.
func (a *app) openBook(ctx context.Context, opts ...ledger.Option) *ledger.Book {
	opts = append([]ledger.Option{ledger.WithLogger(a.logger)}, opts...)
	return ledger.Open(ctx, a.backend.Store, opts...)
}

func (a *app) money(m core.Money) string {
	return m.Display(a.cfg.Currency)
}

// render prints markdown, styled unless --plain is set.
func (a *app) render(w io.Writer, md string) error {
	if a.plain {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(name, value string) (core.Date, error) {
	if value == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: %w (want YYYY-MM-DD)", name, err)
	}
	return d, nil
}
