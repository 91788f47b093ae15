// Package storage uploads avatar images to an S3-compatible object store
// (MinIO in development) and hands back the public URL to persist on the
// user record.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AvatarStore wraps an S3 client configured for one bucket.  A nil store is
// valid and means avatar uploads are disabled.
type AvatarStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// Options carries the S3 connection settings from the environment.
type Options struct {
	Endpoint  string // custom endpoint; empty means stock AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string // base URL objects are served from; defaults to endpoint/bucket
}

// NewAvatarStore builds the store.  It returns (nil, nil) when no endpoint
// is configured so callers can treat the feature as switched off.
func NewAvatarStore(ctx context.Context, opts Options) (*AvatarStore, error) {
	if opts.Endpoint == "" {
		return nil, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true // MinIO serves buckets by path, not subdomain
	})
	public := opts.PublicURL
	if public == "" {
		public = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return &AvatarStore{client: client, bucket: opts.Bucket, publicURL: strings.TrimSuffix(public, "/")}, nil
}

// avatarKey derives a stable object key per account so re-uploads overwrite
// the previous avatar instead of accumulating objects.
func avatarKey(email string) string {
	return "avatars/" + strings.ToLower(strings.TrimSpace(email))
}

// Upload stores the image under the user's key and returns its public URL.
func (s *AvatarStore) Upload(ctx context.Context, email, contentType string, body io.Reader) (string, error) {
	if s == nil {
		return "", fmt.Errorf("avatar storage is not configured")
	}
	key := avatarKey(email)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar object: %w", err)
	}
	return s.publicURL + "/" + key, nil
}
