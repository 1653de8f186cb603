package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ytproxy/internal/app"
)

var publishCmd = &cobra.Command{
	Use:   "publish <request-id>",
	Short: "Publish an approved request",
	Long: `Renew the owner's credential, stage the video and thumbnail locally,
upload both to YouTube and release the staged copies.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		pipeline := app.NewPipeline(svc)

		var (
			result *app.PublishResult
			err    error
		)
		_ = runWithSpinner("Publishing "+args[0], func() error {
			result, err = pipeline.Publish(ctx, args[0])
			return err
		})

		printPublishResult(result, err)
		return err
	})
}

func printPublishResult(result *app.PublishResult, err error) {
	if result == nil {
		fmt.Println(errorStyle.Render("✗ " + err.Error()))
		return
	}

	switch result.Outcome {
	case app.OutcomePublished:
		fmt.Println(successStyle.Render("✓ Published: " + result.VideoURL))
	case app.OutcomePartial:
		fmt.Println(warnStyle.Render("! Video live without thumbnail: " + result.VideoURL))
		if errors.Is(err, app.ErrRecordUpdate) {
			fmt.Println(warnStyle.Render("  The request record was not updated, do not resend."))
		}
	default:
		fmt.Println(errorStyle.Render(fmt.Sprintf("✗ Publish %s at %s", result.Outcome, result.Stage)))
	}

	if hint := app.Advice(err); hint != app.None {
		fmt.Println(infoStyle.Render("  Next: " + hint.String()))
	}
}
