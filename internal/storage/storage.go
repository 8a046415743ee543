// Package storage provides S3-compatible object storage for listing photos
// and account avatars.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/toolshare/marketplace-api/internal/config"
)

// ErrNotConfigured is returned when object storage credentials are missing.
var ErrNotConfigured = errors.New("object storage not configured")

// MaxUploadBytes caps a single upload at 10MB.
const MaxUploadBytes = 10 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store uploads files to an S3-compatible bucket and returns public URLs.
type Store struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

// New creates a store from configuration. Returns ErrNotConfigured when
// credentials are absent so callers can boot with uploads disabled.
func New(cfg config.StorageConfig) (*Store, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &Store{
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Upload stores a file under the given folder and returns its public URL.
// The content type must be one of the allowed image types.
func (s *Store) Upload(ctx context.Context, folder, contentType string, data []byte) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("file exceeds %d bytes", MaxUploadBytes)
	}

	key := path.Join(folder, uuid.Must(uuid.NewV7()).String()+ext)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes an object previously uploaded, identified by its public URL.
func (s *Store) Delete(ctx context.Context, publicURL string) error {
	key := strings.TrimPrefix(publicURL, s.publicURL+"/")
	if key == publicURL || key == "" {
		return fmt.Errorf("url %q does not belong to this store", publicURL)
	}

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
