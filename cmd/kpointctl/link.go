package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/kpoint-gateway/internal/config"
	"github.com/jrsteele09/kpoint-gateway/playlink"
	"github.com/spf13/cobra"
)

func newLinkCmd() *cobra.Command {
	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Build and inspect personalized play links",
	}

	buildCmd := &cobra.Command{
		Use:     "build",
		Short:   "Build a play link with its share links",
		Example: `  kpointctl link build --video gcc-123 --package 52eutbewxdcu --field first_name=Anu --field company=Acme`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			video, _ := cmd.Flags().GetString("video")
			pkg, _ := cmd.Flags().GetString("package")
			state, _ := cmd.Flags().GetString("state")
			pairs, _ := cmd.Flags().GetStringArray("field")
			player, _ := cmd.Flags().GetString("player")
			if player == "" {
				player = config.New().GetPlayerBaseURL()
			}

			fields := make(playlink.Fields, 0, len(pairs))
			for _, pair := range pairs {
				key, value, ok := strings.Cut(pair, "=")
				if !ok || key == "" {
					return fmt.Errorf("field %q is not key=value", pair)
				}
				fields = append(fields, playlink.Field{Key: key, Value: value})
			}

			link, err := playlink.NewBuilder(player).Link(playlink.Params{
				VideoID:   video,
				PackageID: pkg,
				Fields:    fields,
				State:     state,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), link)
		},
	}
	buildCmd.Flags().String("video", "", "video id")
	buildCmd.Flags().String("package", "", "interactivity package id")
	buildCmd.Flags().StringArray("field", nil, "personalization field key=value, repeatable and kept in order")
	buildCmd.Flags().String("state", "", "optional player state")
	buildCmd.Flags().String("player", "", "player base URL, defaults to KPOINT_PLAYER_BASE_URL")

	decodeCmd := &cobra.Command{
		Use:   "decode <play-link|data>",
		Short: "Print the personalization fields carried by a play link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := args[0]
			if strings.Contains(data, "?") {
				param, ok := playlink.DataParam(data)
				if !ok {
					return errors.New("play link has no data parameter")
				}
				data = param
			}
			fields, err := playlink.Decode(data)
			if err != nil {
				return err
			}
			for _, f := range fields {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f.Key, f.Value)
			}
			return nil
		},
	}

	linkCmd.AddCommand(buildCmd, decodeCmd)
	return linkCmd
}
