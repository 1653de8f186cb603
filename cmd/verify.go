package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ytproxy/internal/app"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check stored credentials of approved requests",
	Long: `Renew the credential of every approved request that has not been
published yet. Requests whose credential no longer works are marked as
needing approval again.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		var stale []string
		err := runWithSpinner("Renewing credentials", func() error {
			var err error
			stale, err = svc.VerifyCredentials(ctx)
			return err
		})
		if err != nil {
			return err
		}

		if len(stale) == 0 {
			fmt.Println(successStyle.Render("✓ All approved requests have working credentials"))
			return nil
		}

		fmt.Println(warnStyle.Render(fmt.Sprintf("%d request(s) need approval again:", len(stale))))
		for _, id := range stale {
			fmt.Println("  " + id)
		}
		return nil
	})
}
