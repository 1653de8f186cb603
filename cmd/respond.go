package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"ytproxy/internal/app"
)

var (
	respondApprove      bool
	respondReject       bool
	respondRefreshToken string
)

var respondCmd = &cobra.Command{
	Use:   "respond <request-id>",
	Short: "Approve or reject a request",
	Long: `Record the channel owner's decision. Approval stores the refresh token
obtained from the owner's consent.`,
	Args: cobra.ExactArgs(1),
	RunE: runRespond,
}

func init() {
	respondCmd.Flags().BoolVar(&respondApprove, "approve", false, "Approve the request")
	respondCmd.Flags().BoolVar(&respondReject, "reject", false, "Reject the request")
	respondCmd.Flags().StringVar(&respondRefreshToken, "refresh-token", "", "Owner's refresh token (required to approve)")
	respondCmd.MarkFlagsMutuallyExclusive("approve", "reject")
	rootCmd.AddCommand(respondCmd)
}

func runRespond(cmd *cobra.Command, args []string) error {
	approve := respondApprove
	if !respondApprove && !respondReject {
		decision, err := askDecision(args[0])
		if err != nil {
			return err
		}
		approve = decision
	}

	token := respondRefreshToken
	if approve && token == "" {
		if err := huh.NewInput().
			Title("Refresh token").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run(); err != nil {
			return err
		}
		if token == "" {
			return errors.New("approval requires --refresh-token")
		}
	}

	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		if err := svc.Respond(ctx, args[0], approve, token); err != nil {
			return err
		}

		if approve {
			fmt.Println(successStyle.Render("✓ Approved " + args[0]))
		} else {
			fmt.Println(warnStyle.Render("✗ Rejected " + args[0]))
		}
		return nil
	})
}

func askDecision(id string) (bool, error) {
	var choice string
	if err := huh.NewSelect[string]().
		Title("Request " + id).
		Options(
			huh.NewOption("Approve", "approve"),
			huh.NewOption("Reject", "reject"),
		).
		Value(&choice).
		Run(); err != nil {
		return false, err
	}
	return choice == "approve", nil
}
