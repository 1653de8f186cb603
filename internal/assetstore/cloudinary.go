package assetstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"ytproxy/internal/app/model"
)

const (
	destroyOK       = "ok"
	destroyNotFound = "not found"
)

type CloudinaryRemote struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryRemote accepts either a cloudinary:// URL or the three
// separate credentials.
func NewCloudinaryRemote(url, cloudName, apiKey, apiSecret, folder string) (*CloudinaryRemote, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if url != "" {
		cld, err = cloudinary.NewFromURL(url)
	} else {
		cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return &CloudinaryRemote{cld: cld, folder: folder}, nil
}

func (r *CloudinaryRemote) Upload(ctx context.Context, localPath string, kind model.AssetKind) (*model.Asset, error) {
	resp, err := r.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		ResourceType: string(kind),
		Folder:       r.folder,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error.Message != "" {
		return nil, errors.New(resp.Error.Message)
	}

	return &model.Asset{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Kind:     kind,
	}, nil
}

func (r *CloudinaryRemote) Destroy(ctx context.Context, publicID string, kind model.AssetKind) error {
	resp, err := r.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: string(kind),
	})
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return errors.New(resp.Error.Message)
	}

	switch resp.Result {
	case destroyOK, destroyNotFound:
		return nil
	default:
		return fmt.Errorf("unexpected destroy result %q", resp.Result)
	}
}
