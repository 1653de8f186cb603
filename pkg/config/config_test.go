package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	_ = os.Chdir(tmp)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	return tmp
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)

	yaml := `
staging:
  dir: ./tmp-videos
assets:
  backend: gcs
timeouts:
  token: 5s
  upload: 1h
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Staging.Dir != "./tmp-videos" {
		t.Errorf("Staging.Dir = %q, want ./tmp-videos", cfg.Staging.Dir)
	}
	if cfg.Assets.Backend != "gcs" {
		t.Errorf("Assets.Backend = %q, want gcs", cfg.Assets.Backend)
	}
	if cfg.Timeouts.Token != 5*time.Second {
		t.Errorf("Timeouts.Token = %v, want 5s", cfg.Timeouts.Token)
	}
	if cfg.Timeouts.Upload != time.Hour {
		t.Errorf("Timeouts.Upload = %v, want 1h", cfg.Timeouts.Upload)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	tmp := chdirTemp(t)
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("staging: {}\n"), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Staging.Dir != defaultStagingDir {
		t.Errorf("Staging.Dir = %q, want %q", cfg.Staging.Dir, defaultStagingDir)
	}
	if cfg.YouTube.TokenURL != defaultTokenURL {
		t.Errorf("YouTube.TokenURL = %q, want %q", cfg.YouTube.TokenURL, defaultTokenURL)
	}
	if cfg.Assets.Backend != "cloudinary" {
		t.Errorf("Assets.Backend = %q, want cloudinary", cfg.Assets.Backend)
	}
	if cfg.Timeouts.Delete != defaultDeleteTimeout {
		t.Errorf("Timeouts.Delete = %v, want %v", cfg.Timeouts.Delete, defaultDeleteTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	tmp := chdirTemp(t)
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("assets:\n  backend: gcs\n"), 0644)

	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("DATABASE_PATH", "/data/ytproxy.db")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GoogleClientID != "client-id" {
		t.Errorf("GoogleClientID = %q, want client-id", cfg.GoogleClientID)
	}
	if cfg.GoogleClientSecret != "client-secret" {
		t.Errorf("GoogleClientSecret = %q, want client-secret", cfg.GoogleClientSecret)
	}
	if cfg.DatabasePath != "/data/ytproxy.db" {
		t.Errorf("DatabasePath = %q, want /data/ytproxy.db", cfg.DatabasePath)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	chdirTemp(t)

	_, err := Load(context.Background())
	if err == nil {
		t.Error("Load() should fail when config.yaml missing")
	}
}

func TestHasCloudinary(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "url", cfg: Config{CloudinaryURL: "cloudinary://k:s@name"}, want: true},
		{name: "params", cfg: Config{CloudinaryCloudName: "n", CloudinaryAPIKey: "k", CloudinaryAPISecret: "s"}, want: true},
		{name: "partialParams", cfg: Config{CloudinaryCloudName: "n", CloudinaryAPIKey: "k"}, want: false},
		{name: "empty", cfg: Config{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.HasCloudinary(); got != tt.want {
				t.Errorf("HasCloudinary() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeAccessor struct {
	values map[string]string
	calls  []string
}

func (f *fakeAccessor) Access(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, name)
	value, ok := f.values[name]
	if !ok {
		return "", errors.New("not found")
	}
	return value, nil
}

func TestFillSecrets(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	accessor := &fakeAccessor{values: map[string]string{
		"google-client-secret": "from-secret-manager",
		"cloudinary-url":       "cloudinary://k:s@cloud",
	}}

	if err := fillSecrets(context.Background(), cfg, accessor); err != nil {
		t.Fatalf("fillSecrets() error: %v", err)
	}
	if cfg.GoogleClientSecret != "from-secret-manager" {
		t.Errorf("GoogleClientSecret = %q", cfg.GoogleClientSecret)
	}
	if cfg.CloudinaryURL != "cloudinary://k:s@cloud" {
		t.Errorf("CloudinaryURL = %q", cfg.CloudinaryURL)
	}
}

func TestFillSecretsKeepsEnvironmentValues(t *testing.T) {
	cfg := &Config{GoogleClientSecret: "from-env", CloudinaryURL: "cloudinary://env"}
	applyDefaults(cfg)

	accessor := &fakeAccessor{}
	if err := fillSecrets(context.Background(), cfg, accessor); err != nil {
		t.Fatalf("fillSecrets() error: %v", err)
	}
	if len(accessor.calls) != 0 {
		t.Errorf("expected no secret lookups, got %v", accessor.calls)
	}
	if cfg.GoogleClientSecret != "from-env" {
		t.Errorf("GoogleClientSecret = %q, want from-env", cfg.GoogleClientSecret)
	}
}

func TestFillSecretsMissing(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if err := fillSecrets(context.Background(), cfg, &fakeAccessor{}); err == nil {
		t.Error("fillSecrets() should fail when the secret does not exist")
	}
}
