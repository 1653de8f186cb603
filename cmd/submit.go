package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ytproxy/internal/app"
	"ytproxy/internal/app/model"
)

var submitInput app.SubmitInput

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Stage a video for a channel owner's approval",
	Long:  `Upload a local video and thumbnail to the asset store and file a pending request.`,
	RunE:  runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitInput.VideoPath, "video", "", "Path to the video file")
	f.StringVar(&submitInput.ThumbnailPath, "thumbnail", "", "Path to the thumbnail image")
	f.StringVarP(&submitInput.Metadata.Title, "title", "t", "", "Video title")
	f.StringVarP(&submitInput.Metadata.Description, "description", "d", "", "Video description")
	f.StringVar(&submitInput.Metadata.CategoryID, "category", "", "YouTube category id")
	f.StringVar(&submitInput.Metadata.Audience, "audience", "no", `Made for kids ("yes" or "no")`)
	f.StringVar(&submitInput.Metadata.PrivacyStatus, "privacy", "", "private, unlisted or public")
	f.StringVar(&submitInput.FromUser, "from", "", "Editor submitting the request")
	f.StringVar(&submitInput.ToUser, "to", "", "Channel owner who approves the request")
	_ = submitCmd.MarkFlagRequired("video")
	_ = submitCmd.MarkFlagRequired("thumbnail")
	_ = submitCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if submitInput.Metadata.Title == "" {
		return errors.New("please provide --title")
	}

	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		var req *model.Request
		err := runWithSpinner("Uploading assets", func() error {
			var err error
			req, err = svc.Submit(ctx, submitInput)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render("✓ Request submitted: " + req.ID))
		fmt.Println(infoStyle.Render("  Waiting for approval from " + req.ToUser))
		return nil
	})
}
