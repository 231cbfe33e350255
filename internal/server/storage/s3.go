// Package storage keeps uploaded images in an S3-compatible bucket (MinIO in
// development).
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/google/uuid"
)

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Options configures S3ImageStore.
type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// S3ImageStore implements services.ImageStore.
type S3ImageStore struct {
	client objectAPI
	bucket string
	now    func() time.Time
}

var _ services.ImageStore = (*S3ImageStore)(nil)

// NewS3ImageStore builds an S3 client with static credentials. BaseEndpoint,
// when set, switches to path-style addressing for MinIO.
func NewS3ImageStore(ctx context.Context, opts Options) (*S3ImageStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3ImageStore{client: client, bucket: opts.Bucket, now: time.Now}, nil
}

// storageKey lays keys out per user and upload day, keeping the original
// extension.
func (s *S3ImageStore) storageKey(userID, name string) string {
	d := s.now().UTC()
	ext := strings.ToLower(path.Ext(name))
	return fmt.Sprintf("%s%d/%02d/%02d/%s%s", services.ImageKeyPrefix(userID), d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *S3ImageStore) Put(ctx context.Context, userID string, img services.ImageUpload) (string, error) {
	key := s.storageKey(userID, img.Name)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   img.Body,
	}
	if img.ContentType != "" {
		in.ContentType = aws.String(img.ContentType)
	}
	if img.Size > 0 {
		in.ContentLength = aws.Int64(img.Size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
