package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytproxy/internal/storage"
	"ytproxy/internal/store"
	"ytproxy/pkg/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check configuration of every service",
	Long:  `Verify which services are configured and report pending work.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(infoStyle.Render("\nService Status:\n"))

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		fmt.Println(successStyle.Render("✓ Google OAuth: client configured"))
	} else {
		fmt.Println(errorStyle.Render("✗ Google OAuth: missing GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET"))
	}

	switch cfg.Assets.Backend {
	case "cloudinary":
		if cfg.HasCloudinary() {
			fmt.Println(successStyle.Render("✓ Asset store: Cloudinary configured"))
		} else {
			fmt.Println(errorStyle.Render("✗ Asset store: missing CLOUDINARY_URL"))
		}
	case "gcs":
		if cfg.GCSBucket != "" {
			fmt.Println(successStyle.Render("✓ Asset store: GCS bucket " + cfg.GCSBucket))
		} else {
			fmt.Println(errorStyle.Render("✗ Asset store: missing GCS_BUCKET"))
		}
	default:
		fmt.Println(errorStyle.Render("✗ Asset store: unknown backend " + cfg.Assets.Backend))
	}

	if cfg.GCPProject != "" {
		fmt.Println(successStyle.Render("✓ Secret Manager: project " + cfg.GCPProject))
	} else {
		fmt.Println(infoStyle.Render("○ Secret Manager: not configured (optional)"))
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Println(errorStyle.Render("✗ Database: " + err.Error()))
	} else {
		defer func() { _ = db.Close() }()
		awaiting, _ := db.ListAwaitingUpload(ctx)
		pending, _ := db.ListPendingDeletes(ctx)
		fmt.Println(successStyle.Render("✓ Database: " + cfg.DatabasePath))
		fmt.Println(infoStyle.Render(fmt.Sprintf("  %d approved request(s) waiting, %d pending delete(s)", len(awaiting), len(pending))))
	}

	files, _ := storage.NewLocalStorage(cfg.Staging.Dir).List()
	if len(files) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("! Staging: %d leftover file(s) in %s, run: ytproxy clear", len(files), cfg.Staging.Dir)))
	} else {
		fmt.Println(successStyle.Render("✓ Staging: " + cfg.Staging.Dir + " is empty"))
	}

	fmt.Println()
	return nil
}
