package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jrsteele09/kpoint-gateway/internal/config"
	"github.com/jrsteele09/kpoint-gateway/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kpointctl",
		Short: "Talk to the KPOINT API with the gateway's credentials",
		Long: `kpointctl reads the same KPOINT_* environment as the gateway server. It mints
and opens challenge tokens, acquires bearer tokens, sends raw API calls and
builds personalized play links.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c := config.New()
			logging.SetupWriter(cmd.ErrOrStderr(), c.GetLogLevel(), c.GetLogPretty())
		},
	}
	root.AddCommand(newTokenCmd(), newCallCmd(), newLinkCmd())
	return root
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
