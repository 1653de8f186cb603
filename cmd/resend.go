package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ytproxy/internal/app"
)

var resendCmd = &cobra.Command{
	Use:   "resend <request-id>",
	Short: "Send a request back to its owner for approval",
	Args:  cobra.ExactArgs(1),
	RunE:  runResend,
}

func init() {
	rootCmd.AddCommand(resendCmd)
}

func runResend(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		if err := svc.Resend(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Request " + args[0] + " is pending approval again"))
		return nil
	})
}
