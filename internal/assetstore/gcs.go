package assetstore

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"ytproxy/internal/app/model"
	"ytproxy/internal/storage"
)

// ObjectBucket is the subset of storage.GCSStorage used as a secondary store.
type ObjectBucket interface {
	Bucket() string
	UploadFile(ctx context.Context, localPath, object, contentType string) error
	DeleteObject(ctx context.Context, object string) error
}

// GCSRemote keeps assets in a bucket. The object name is the public id and
// the asset URL is its gs:// address, which the staging fetcher can read back.
type GCSRemote struct {
	bucket ObjectBucket
	prefix string
}

func NewGCSRemote(bucket ObjectBucket, prefix string) *GCSRemote {
	return &GCSRemote{bucket: bucket, prefix: prefix}
}

func (r *GCSRemote) Upload(ctx context.Context, localPath string, kind model.AssetKind) (*model.Asset, error) {
	ext := filepath.Ext(localPath)
	if ext == "" {
		ext = "." + kind.Extension()
	}
	object := path.Join(r.prefix, string(kind), uuid.NewString()+ext)

	if err := r.bucket.UploadFile(ctx, localPath, object, kind.ContentType()); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", object, err)
	}

	return &model.Asset{
		URL:      storage.GSURL(r.bucket.Bucket(), object),
		PublicID: object,
		Kind:     kind,
	}, nil
}

func (r *GCSRemote) Destroy(ctx context.Context, publicID string, _ model.AssetKind) error {
	return r.bucket.DeleteObject(ctx, publicID)
}
