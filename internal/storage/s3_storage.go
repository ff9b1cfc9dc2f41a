package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"huntmate/backend/internal/config"
)

// IPhotoStorage defines the interface for request photo blob storage. The
// rest of the system only ever sees public URLs; keys and buckets stay in
// here.
type IPhotoStorage interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// s3Storage implements IPhotoStorage on top of S3.
type s3Storage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewS3Storage creates a new S3-backed photo storage.
func NewS3Storage(cfg *config.Config) (IPhotoStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Use static credentials from config for simplicity
		// For production, prefer IAM roles or other secure credential methods
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{
		cfg:      cfg,
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

// Upload stores a photo under a fresh random key and returns its public URL.
// The original filename only contributes its extension; everything else is
// discarded so user input never reaches the key.
func (s *s3Storage) Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	objectKey := fmt.Sprintf("photos/%s%s", uuid.NewString(), ext)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo %s: %w", objectKey, err)
	}

	return s.PublicURL(objectKey), nil
}

// PublicURL maps an object key to the URL handed out to clients.
func (s *s3Storage) PublicURL(objectKey string) string {
	base := strings.TrimSuffix(s.cfg.PhotoBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.AwsS3Bucket, s.cfg.AwsRegion)
	}
	return base + "/" + objectKey
}

// Delete removes the object behind a previously issued public URL. URLs that
// do not belong to this storage are logged and skipped rather than failed:
// photo cleanup is best-effort and must never block request deletion.
func (s *s3Storage) Delete(ctx context.Context, publicURL string) error {
	objectKey, ok := s.keyFromURL(publicURL)
	if !ok {
		log.Printf("WARNING: skipping photo delete for unrecognized URL %s", publicURL)
		return nil
	}

	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", objectKey, err)
	}
	return nil
}

func (s *s3Storage) keyFromURL(publicURL string) (string, bool) {
	base := strings.TrimSuffix(s.cfg.PhotoBaseURL, "/")
	if base != "" && strings.HasPrefix(publicURL, base+"/") {
		return strings.TrimPrefix(publicURL, base+"/"), true
	}
	// Fall back to the raw bucket URL form.
	marker := ".amazonaws.com/"
	if idx := strings.Index(publicURL, marker); idx >= 0 {
		return publicURL[idx+len(marker):], true
	}
	return "", false
}
