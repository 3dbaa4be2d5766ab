package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/kpoint-gateway/internal/bootstrap"
	"github.com/jrsteele09/kpoint-gateway/internal/config"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/kpoint"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	callCmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Send an authenticated request to the KPOINT API",
		Long: `Send one request to {KPOINT_BASE_URL}/api/{KPOINT_API_VERSION}<path> using the
configured auth mode and print the response body.`,
		Example: `  kpointctl call /videos --param scope=all
  kpointctl call /publish --method POST --data '{"package_id":"p1","users":["u1"]}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			method, _ := cmd.Flags().GetString("method")
			params, _ := cmd.Flags().GetStringToString("param")
			data, _ := cmd.Flags().GetString("data")
			name, _ := cmd.Flags().GetString("name")
			account, _ := cmd.Flags().GetString("account")

			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data is not valid JSON")
				}
				body = json.RawMessage(data)
			}

			c := config.New()
			tokens, codec := bootstrap.Credentials(c)
			client := bootstrap.NewClient(c, tokens, codec)

			ctx := kpoint.WithIdentity(cmd.Context(), kpoint.Identity{Name: name, AccountNumber: account})
			resp, err := client.Call(ctx, path, kpoint.RequestOptions{
				Method: strings.ToUpper(method),
				Body:   body,
				Params: params,
			})
			if err != nil {
				var apiErr *apperrors.APIError
				if apperrors.As(err, &apiErr) && apiErr.Body != nil {
					_ = printJSON(cmd.OutOrStdout(), apiErr.Body)
				}
				return fmt.Errorf("%s %s failed: %w", strings.ToUpper(method), path, err)
			}

			if !resp.JSON {
				_, err = cmd.OutOrStdout().Write(resp.Body)
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, resp.Body, "", "  "); err != nil {
				return fmt.Errorf("failed to format response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
	callCmd.Flags().StringP("method", "X", "GET", "HTTP method")
	callCmd.Flags().StringToString("param", nil, "query parameter key=value, repeatable")
	callCmd.Flags().StringP("data", "d", "", "JSON request body")
	callCmd.Flags().String("name", "", "user name for challenge tokens")
	callCmd.Flags().String("account", "", "user account number for challenge tokens")
	return callCmd
}
