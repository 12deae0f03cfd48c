package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"breathein/internal/services/youtube"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize breathein to upload to your YouTube channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := youtube.NewFileTokenStore(cfg.YouTube.TokenPath)
			out := cmd.OutOrStdout()
			if !force {
				if tok, err := store.Load(); err == nil && tok != nil && tok.RefreshToken != "" {
					fmt.Fprintf(out, "Already authorized (token at %s); use --force to re-run consent\n", store.Path())
					return nil
				}
			}
			oauthCfg, err := youtube.LoadClientConfig(cfg.YouTube.ClientSecretPath)
			if err != nil {
				return err
			}
			authCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if _, err := youtube.Authorize(authCtx, oauthCfg, store, out, cmd.InOrStdin()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Authorization complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-run consent even when a token exists")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for consent")
	return cmd
}
