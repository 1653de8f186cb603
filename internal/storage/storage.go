package storage

import (
	"context"
	"io"
	"strings"
)

const gcsScheme = "gs://"

// ObjectOpener streams an object out of a bucket.
type ObjectOpener interface {
	OpenObject(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// ParseGSURL splits gs://bucket/path/to/object.
func ParseGSURL(url string) (bucket, object string, ok bool) {
	if !strings.HasPrefix(url, gcsScheme) {
		return "", "", false
	}
	bucket, object, found := strings.Cut(strings.TrimPrefix(url, gcsScheme), "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

func GSURL(bucket, object string) string {
	return gcsScheme + bucket + "/" + object
}
