package objstore

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const localBucket = "galynx-attachments"

// Local produces deterministic placeholder URLs when no S3 bucket is
// configured. The URLs are not servable; they keep the attachment flow
// exercisable in development and tests.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return l.signed(key, ttl, nil), nil
}

func (l *Local) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("filename", filename)
	return l.signed(key, ttl, params), nil
}

func (l *Local) Bucket() string { return localBucket }

func (l *Local) Region() string { return "local" }

func (l *Local) signed(key string, ttl time.Duration, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("expires", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
	u := url.URL{
		Scheme:   "https",
		Host:     "storage.galynx.local",
		Path:     "/" + localBucket + "/" + key,
		RawQuery: params.Encode(),
	}
	return u.String()
}
