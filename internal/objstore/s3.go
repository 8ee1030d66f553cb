package objstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3 issues real presigned URLs through an S3-compatible endpoint (AWS,
// MinIO, localstack).
type S3 struct {
	client         *minio.Client
	bucket         string
	region         string
	publicEndpoint *url.URL
	logger         *zap.Logger
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicEndpoint  string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// NewS3 builds a minio client from S3_* config. Endpoint may carry a
// scheme; a bare host is used over TLS, and an empty endpoint selects the
// default AWS endpoint for the region.
func NewS3(cfg S3Config, logger *zap.Logger) (*S3, error) {
	endpoint := cfg.Endpoint
	secure := true
	if endpoint == "" {
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", cfg.Region)
	} else if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse s3 endpoint: %w", err)
		}
		secure = parsed.Scheme == "https"
		endpoint = parsed.Host
	}

	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	var public *url.URL
	if cfg.PublicEndpoint != "" {
		public, err = url.Parse(cfg.PublicEndpoint)
		if err != nil {
			return nil, fmt.Errorf("parse s3 public endpoint: %w", err)
		}
	}

	logger.Info("object storage configured",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", endpoint),
	)
	return &S3{
		client:         client,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		publicEndpoint: public,
		logger:         logger,
	}, nil
}

func (s *S3) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return s.rewrite(u), nil
}

func (s *S3) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return s.rewrite(u), nil
}

func (s *S3) Bucket() string { return s.bucket }

func (s *S3) Region() string { return s.region }

// rewrite swaps the internal endpoint for the public one so browsers reach
// the store through its externally visible host.
func (s *S3) rewrite(u *url.URL) string {
	if s.publicEndpoint != nil {
		u.Scheme = s.publicEndpoint.Scheme
		u.Host = s.publicEndpoint.Host
	}
	return u.String()
}
