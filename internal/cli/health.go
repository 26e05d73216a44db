package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/cmdbridge/bridge"
	"github.com/jonwraymond/cmdbridge/health"
)

func newHealthCmd(a *app) *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check which transports are reachable",
		Long: "Runs the bridge and fallback health checks and prints the report as JSON.\n" +
			"Exits non-zero only when no transport is usable.",
		Args: cobra.NoArgs,
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, _ []string) error {
		client, err := a.fallbackClient(url)
		if err != nil {
			return err
		}

		// The command line never runs inside the webview, so there is no
		// native bridge to detect.
		selector := bridge.NewSelector(nil, client)

		agg := health.NewAggregator(health.AggregatorConfig{Timeout: timeout})
		agg.Register("bridge", health.NewBridgeChecker(selector))
		agg.Register("fallback", health.NewFallbackChecker(client))

		results := agg.CheckAll(cmd.Context())
		report := health.NewHealthResponse(agg, results)

		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if agg.OverallStatus(results) == health.StatusUnhealthy {
			return errUnhealthy
		}
		return nil
	})

	cmd.Flags().StringVar(&url, "url", "", "fallback base URL (default from CMDBRIDGE_FALLBACK_URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", health.DefaultCheckTimeout, "overall check timeout")
	return cmd
}
