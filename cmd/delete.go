package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"ytproxy/internal/app"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <request-id>",
	Short: "Delete a request and its staged assets",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !deleteYes {
		var confirm bool
		if err := huh.NewConfirm().
			Title("Delete request " + args[0] + "?").
			Description("Staged video and thumbnail are removed from the asset store.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirm).
			Run(); err != nil {
			return err
		}
		if !confirm {
			fmt.Println(infoStyle.Render("Kept request " + args[0]))
			return nil
		}
	}

	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		if err := svc.DeleteRequest(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Deleted " + args[0]))
		return nil
	})
}
