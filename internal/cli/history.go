package cli

import (
	"github.com/spf13/cobra"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/tracker"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		site   string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.Application) error {
				scans, err := a.Orch.ListScans(cmd.Context(), tracker.ListOptions{Site: site, Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					if scans == nil {
						scans = []tracker.ScanSummary{}
					}
					return writeJSON(out(cmd), scans)
				}
				printHistory(out(cmd), scans)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "only scans of this host")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of scans")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Print a stored scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.Application) error {
				res, err := a.Orch.GetScan(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out(cmd), res)
				}
				printReport(out(cmd), res)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newDiffCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diff <base-id> <head-id>",
		Short: "Compare two stored scans of the same site",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.Application) error {
				d, err := a.Orch.DiffScans(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out(cmd), d)
				}
				printDiff(out(cmd), d)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
