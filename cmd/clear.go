package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ytproxy/internal/storage"
	"ytproxy/pkg/config"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stale staged files",
	Long:  `Remove transient files a crashed publish run left in the staging directory.`,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Remove every staged file regardless of age")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	maxAge := cfg.Staging.StaleMaxAge
	if clearAll {
		maxAge = 0
	}

	local := storage.NewLocalStorage(cfg.Staging.Dir)
	count, err := local.RemoveStale(maxAge, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d staged file(s) from %s\n", count, local.Dir())
	return nil
}
