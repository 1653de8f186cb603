package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ytproxy/internal/app"
)

var pendingRetry bool

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List asset deletes that never completed",
	Long: `Show the breadcrumbs left when the asset store could not confirm a
delete. With --retry, each delete is attempted once more.`,
	RunE: runPending,
}

func init() {
	pendingCmd.Flags().BoolVar(&pendingRetry, "retry", false, "Retry every pending delete once")
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		if pendingRetry {
			cleared, err := svc.RetryPendingDeletes(ctx)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Cleared %d pending delete(s)", cleared)))
		}

		pending, err := svc.PendingDeletes(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println(infoStyle.Render("No pending deletes"))
			return nil
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("%d pending delete(s)", len(pending))))
		for _, pd := range pending {
			fmt.Printf("  #%d  %-6s %s  request=%s  since %s\n",
				pd.ID, pd.Kind, pd.PublicID, pd.RequestID, pd.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	})
}
