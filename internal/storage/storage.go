// Package storage uploads and deletes message attachments in S3. Images and
// documents live in separate buckets; when the document bucket is not
// configured or not reachable, documents fall back to the image bucket
// rather than failing the send.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/adamavenir/parley/internal/types"
)

// Options configure attachment storage.
type Options struct {
	Region         string
	ImageBucket    string
	DocumentBucket string // optional; empty means documents share the image bucket
}

// Store wraps the S3 client used for attachments.
type Store struct {
	client         *s3.Client
	region         string
	imageBucket    string
	documentBucket string
}

// New builds a Store from the ambient AWS configuration.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.ImageBucket == "" {
		return nil, fmt.Errorf("attachment storage: image bucket not configured")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Store{
		client:         s3.NewFromConfig(cfg),
		region:         opts.Region,
		imageBucket:    opts.ImageBucket,
		documentBucket: opts.DocumentBucket,
	}, nil
}

// KindFor classifies an upload by its content type.
func KindFor(contentType string) types.AttachmentKind {
	if strings.HasPrefix(contentType, "image/") {
		return types.AttachmentImage
	}
	return types.AttachmentDocument
}

// Upload stores a file and returns its public URL. Document uploads try the
// document bucket first and fall back to the image bucket.
func (s *Store) Upload(ctx context.Context, ownerID, fileName, contentType string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s-%s", ownerID, time.Now().UTC().Format("20060102150405"), path.Base(fileName))

	bucket := s.imageBucket
	if KindFor(contentType) == types.AttachmentDocument && s.documentBucket != "" {
		bucket = s.documentBucket
	}

	if err := s.put(ctx, bucket, key, contentType, data); err != nil {
		if bucket == s.documentBucket {
			// Document area unavailable; land the file next to the images.
			bucket = s.imageBucket
			if err := s.put(ctx, bucket, key, contentType, data); err != nil {
				return "", fmt.Errorf("upload attachment: %w", err)
			}
		} else {
			return "", fmt.Errorf("upload attachment: %w", err)
		}
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key), nil
}

func (s *Store) put(ctx context.Context, bucket, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// Delete removes an uploaded object by its public URL. Callers treat failure
// as best-effort: an orphaned object is logged, never surfaced.
func (s *Store) Delete(ctx context.Context, publicURL string) error {
	bucket, key, err := ParseObjectURL(publicURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// ParseObjectURL splits a public object URL into bucket and key.
func ParseObjectURL(publicURL string) (bucket, key string, err error) {
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid object url: %w", err)
	}
	host := parsed.Hostname()
	dot := strings.Index(host, ".s3.")
	if dot <= 0 {
		return "", "", fmt.Errorf("invalid object url: not an s3 host: %s", host)
	}
	bucket = host[:dot]
	key = strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid object url: empty key")
	}
	return bucket, key, nil
}
