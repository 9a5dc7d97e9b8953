package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/model"
)

func newScanCmd(opts *options) *cobra.Command {
	var (
		mode            string
		deep            bool
		skipScreenshots bool
		skipWhois       bool
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scan a website and print its overview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			req := model.ScanRequest{
				URL:             args[0],
				Mode:            model.ScanMode(mode),
				DeepScan:        deep,
				SkipScreenshots: skipScreenshots,
				SkipWhois:       skipWhois,
			}

			return opts.withApp(cmd, func(a *app.Application) error {
				res, err := a.Orch.Scan(ctx, req)
				if err != nil {
					var se *app.ScanError
					if errors.As(err, &se) {
						return fmt.Errorf("%s (status %d)", se.Message, se.Status)
					}
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

	cmd.Flags().StringVarP(&mode, "mode", "m", string(model.ModeBasic), "scan mode: basic or rendered")
	cmd.Flags().BoolVar(&deep, "deep", false, "mine same-origin links for extra API endpoints")
	cmd.Flags().BoolVar(&skipScreenshots, "skip-screenshots", false, "skip desktop/mobile captures in rendered mode")
	cmd.Flags().BoolVar(&skipWhois, "skip-whois", false, "skip the WHOIS lookup")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
