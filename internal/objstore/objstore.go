// Package objstore abstracts presigned-URL generation for attachment
// uploads and downloads.
package objstore

import (
	"context"
	"time"
)

// Storage issues presigned URLs against one bucket.
type Storage interface {
	// PresignPut returns a URL a client can PUT the object body to.
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	// PresignGet returns a download URL that serves the object with a
	// Content-Disposition naming the original file.
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
	Bucket() string
	Region() string
}
