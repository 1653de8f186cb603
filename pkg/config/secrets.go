package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretAccessor reads the latest version of a named secret.
type SecretAccessor interface {
	Access(ctx context.Context, name string) (string, error)
}

type secretManagerAccessor struct {
	client  *secretmanager.Client
	project string
}

func (a *secretManagerAccessor) Access(ctx context.Context, name string) (string, error) {
	resp, err := a.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", a.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func resolveSecrets(ctx context.Context, cfg *Config) error {
	if cfg.GoogleClientSecret != "" && cfg.HasCloudinary() {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return fillSecrets(ctx, cfg, &secretManagerAccessor{client: client, project: cfg.GCPProject})
}

// fillSecrets only overwrites values the environment left empty.
func fillSecrets(ctx context.Context, cfg *Config, accessor SecretAccessor) error {
	if cfg.GoogleClientSecret == "" {
		value, err := accessor.Access(ctx, cfg.Secrets.ClientSecretName)
		if err != nil {
			return err
		}
		cfg.GoogleClientSecret = value
		slog.Debug("Loaded secret", "name", cfg.Secrets.ClientSecretName)
	}

	if cfg.Assets.Backend == "cloudinary" && !cfg.HasCloudinary() {
		value, err := accessor.Access(ctx, cfg.Secrets.CloudinarySecretName)
		if err != nil {
			return err
		}
		cfg.CloudinaryURL = value
		slog.Debug("Loaded secret", "name", cfg.Secrets.CloudinarySecretName)
	}

	return nil
}
