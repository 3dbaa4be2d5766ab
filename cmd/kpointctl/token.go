package main

import (
	"fmt"
	"time"

	"github.com/jrsteele09/kpoint-gateway/internal/bootstrap"
	"github.com/jrsteele09/kpoint-gateway/internal/config"
	"github.com/jrsteele09/kpoint-gateway/token"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint, open and acquire KPOINT credentials",
	}

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a sealed challenge token",
		Long:  "Mint a sealed challenge token for the configured client, printed as query parameters or as an Authorization header value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec := codecFor(cmd)
			name, _ := cmd.Flags().GetString("name")
			account, _ := cmd.Flags().GetString("account")

			if header, _ := cmd.Flags().GetBool("header"); header {
				value, err := codec.AuthHeader(name, account)
				if err != nil {
					return fmt.Errorf("failed to mint token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			params, err := codec.AuthQueryParams(name, account)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token=%s\nkcid=%s\n", params.Token, params.KCID)
			return nil
		},
	}
	mintCmd.Flags().String("name", "", "user name asserted in the token")
	mintCmd.Flags().String("account", "", "user account number asserted in the token")
	mintCmd.Flags().String("email", "", "user email, overrides KPOINT_USER_EMAIL")
	mintCmd.Flags().Bool("header", false, "print an Authorization header value instead of query parameters")

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Decrypt a sealed challenge token and check its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := codecFor(cmd).Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open token: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), payload)
		},
	}

	bearerCmd := &cobra.Command{
		Use:   "bearer",
		Short: "Exchange the client credentials for a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, _ := bootstrap.Credentials(config.New())
			tok, err := tokens.Token(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to acquire bearer token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "access_token=%s\nexpires_at=%s\n", tok.AccessToken, tok.Expiry.Format(time.RFC3339))
			return nil
		},
	}

	tokenCmd.AddCommand(mintCmd, verifyCmd, bearerCmd)
	return tokenCmd
}

func codecFor(cmd *cobra.Command) *token.Codec {
	c := config.New()
	email := c.GetUserEmail()
	if f := cmd.Flags().Lookup("email"); f != nil && f.Changed {
		email = f.Value.String()
	}
	return token.NewCodec(c.GetClientID(), c.GetClientSecret(), email)
}
