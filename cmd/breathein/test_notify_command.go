package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"breathein/internal/ipc"
	"breathein/internal/notifications"
)

// newTestNotifyCommand sends through the running scheduler when one answers,
// and publishes directly otherwise.
func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if client, err := ipc.Dial(ctx.socketPath()); err == nil {
				defer client.Close()
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, resp.Message)
				return nil
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				return fmt.Errorf("ntfy topic not configured; set notifications.ntfy_topic or NTFY_TOPIC")
			}
			service := notifications.NewService(cfg)
			if err := service.Publish(cmd.Context(), notifications.EventTest, notifications.Payload{}); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
