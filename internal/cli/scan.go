package cli

import (
	"github.com/spf13/cobra"

	"candle-scanner/internal/notify"
	"candle-scanner/internal/scanner"
)

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan pass and print the report",
		Long: `Fetch history for every configured timeframe, run the detector suite
once and print the report to the terminal. No stream is opened and no
webhooks are delivered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := scanner.New(app.Config, app.Logger)
			s.SetNotifier(notify.NewTerminalNotifierWithWriter(cmd.OutOrStdout()))
			return s.ScanOnce(cmd.Context())
		},
	}

	cmd.Flags().String("symbol", "", "override the configured symbol")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if symbol, _ := cmd.Flags().GetString("symbol"); symbol != "" {
			app.Config.Market.Symbol = symbol
		}
		return nil
	}

	return cmd
}

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the live scanner service",
		Long: `Load history, subscribe to the kline stream and keep scanning: every
bar close triggers an immediate scan, and the configured schedule fires
periodic scans in between. Blocks until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := scanner.New(app.Config, app.Logger)
			app.Logger.Info().
				Str("symbol", app.Config.Market.Symbol).
				Strs("timeframes", app.Config.Market.Timeframes).
				Msg("scanner starting")
			return s.Run(cmd.Context())
		},
	}
}
