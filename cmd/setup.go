package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	envPath    = ".env"
	configPath = "config.yaml"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for ytproxy",
	Long:  `Write config.yaml, create the staging directory and collect credentials into .env.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("ytproxy setup"))

	backend, err := chooseBackend()
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Writing config", func() error { return writeConfigFile(backend) }},
		{"Creating directories", createDirectories},
		{"Configuring environment", func() error { return configureEnv(backend) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	printNextSteps()
	return nil
}

func chooseBackend() (string, error) {
	var backend string
	if err := huh.NewSelect[string]().
		Title("Where are drafts staged before publishing?").
		Options(
			huh.NewOption("Cloudinary", "cloudinary"),
			huh.NewOption("Google Cloud Storage", "gcs"),
		).
		Value(&backend).
		Run(); err != nil {
		return "", err
	}
	return backend, nil
}

type setupConfig struct {
	Staging struct {
		Dir string `yaml:"dir"`
	} `yaml:"staging"`
	Assets struct {
		Backend string `yaml:"backend"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"assets"`
}

func writeConfigFile(backend string) error {
	if _, err := os.Stat(configPath); err == nil {
		if !confirmOverwrite(configPath) {
			fmt.Println(infoStyle.Render("Kept existing " + configPath))
			return nil
		}
	}

	var cfg setupConfig
	cfg.Staging.Dir = "./videos"
	cfg.Assets.Backend = backend
	cfg.Assets.Prefix = "drafts"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created " + configPath))
	return nil
}

func createDirectories() error {
	if err := os.MkdirAll("videos", 0755); err != nil {
		return fmt.Errorf("create videos: %w", err)
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureEnv(backend string) error {
	if _, err := os.Stat(envPath); err == nil {
		if !confirmOverwrite(envPath) {
			fmt.Println(infoStyle.Render("Kept existing " + envPath))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureGoogleOAuth(env); err != nil {
		return err
	}

	switch backend {
	case "cloudinary":
		if err := configureCloudinary(env); err != nil {
			return err
		}
	case "gcs":
		if err := configureBucket(env); err != nil {
			return err
		}
	}

	if err := configureSecretManager(env); err != nil {
		return err
	}

	if err := godotenv.Write(env, envPath); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created " + envPath))
	return nil
}

func configureGoogleOAuth(env map[string]string) error {
	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Use the same client that issues the owners' refresh tokens
`))

	var clientID, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Google Client ID").
				Value(&clientID).
				Validate(required("Google Client ID")),
			huh.NewInput().
				Title("Google Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	setIfPresent(env, "GOOGLE_CLIENT_ID", clientID)
	setIfPresent(env, "GOOGLE_CLIENT_SECRET", clientSecret)
	return nil
}

func configureCloudinary(env map[string]string) error {
	var url string
	if err := huh.NewInput().
		Title("Cloudinary URL").
		Description("cloudinary://<api_key>:<api_secret>@<cloud_name>").
		EchoMode(huh.EchoModePassword).
		Value(&url).
		Run(); err != nil {
		return err
	}

	setIfPresent(env, "CLOUDINARY_URL", url)
	return nil
}

func configureBucket(env map[string]string) error {
	var bucket string
	if err := huh.NewInput().
		Title("GCS bucket").
		Value(&bucket).
		Validate(required("GCS bucket")).
		Run(); err != nil {
		return err
	}

	setIfPresent(env, "GCS_BUCKET", bucket)
	return nil
}

func configureSecretManager(env map[string]string) error {
	var use bool
	if err := huh.NewConfirm().
		Title("Read missing secrets from Secret Manager?").
		Description("Client secret and Cloudinary URL are looked up by name when not set here").
		Value(&use).
		Run(); err != nil || !use {
		return err
	}

	var project string
	if err := huh.NewInput().
		Title("Google Cloud project id").
		Value(&project).
		Validate(required("Project id")).
		Run(); err != nil {
		return err
	}

	setIfPresent(env, "GOOGLE_CLOUD_PROJECT", project)
	return nil
}

func confirmOverwrite(path string) bool {
	var overwrite bool
	if err := huh.NewConfirm().
		Title("Found existing " + path).
		Description("Overwrite?").
		Value(&overwrite).
		Run(); err != nil {
		return false
	}
	return overwrite
}

func setIfPresent(env map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		env[key] = value
	}
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check the setup: ytproxy status")
	fmt.Println("  2. Stage a draft: ytproxy submit --video clip.mp4 --thumbnail clip.jpg -t \"Title\" --to owner@example.com")
	fmt.Println("  3. After approval: ytproxy publish <request-id>")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
