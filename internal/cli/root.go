// Package cli implements the sitelens command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/logging"
)

const shutdownTimeout = 15 * time.Second

// options carries state shared by every subcommand. Tests swap newApp for
// one wired to dummies.
type options struct {
	cfgFile string
	verbose bool

	cfg    *app.Config
	logger logging.Logger

	newApp func(cfg *app.Config, logger logging.Logger) (*app.Application, error)
}

// NewRootCmd builds the sitelens command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{newApp: app.NewApplication})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitelens",
		Short:         "Website overview scanner: technology, security, DNS, WHOIS and performance at a glance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			if opts.logger == nil {
				switch {
				case opts.verbose || cfg.DevLogging:
					opts.logger = logging.NewDevelopmentLogger("cli")
				case cmd.Name() == "serve":
					opts.logger = logging.NewStdoutLogger("sitelens")
				default:
					opts.logger = logging.NewNopLogger()
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.sitelens.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "human-readable debug logging on stderr")

	root.AddCommand(newScanCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newDiffCmd(opts))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("error:"), err)
		os.Exit(1)
	}
}

// withApp builds the application, runs fn and shuts it down.
func (o *options) withApp(cmd *cobra.Command, fn func(a *app.Application) error) error {
	a, err := o.newApp(o.cfg, o.logger)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			o.logger.Warn("shutdown", logging.Field{Key: "error", Value: err.Error()})
		}
	}()
	return fn(a)
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
