package services

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RK62021/Project-Verse/config"
	"github.com/RK62021/Project-Verse/errs"
)

// ImageStore keeps project images somewhere durable and addressable by URL.
type ImageStore interface {
	// Upload stores the file at localPath under folder and returns its public URL.
	Upload(ctx context.Context, localPath, folder string) (string, error)
	// Delete removes a previously uploaded image. URLs the store did not
	// issue are ignored.
	Delete(ctx context.Context, imageURL string) error
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore stores images in an S3 (or S3-compatible) bucket.
type S3ImageStore struct {
	client  s3API
	bucket  string
	baseURL string
}

func NewS3ImageStore(client s3API, bucket, baseURL string) *S3ImageStore {
	return &S3ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewS3ImageStoreFromConfig builds a store from the S3_* keys. It returns
// nil when S3_BUCKET is unset, meaning uploads are disabled.
func NewS3ImageStoreFromConfig(ctx context.Context, c map[string]string) (*S3ImageStore, error) {
	bucket := config.GetString(c, "S3_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}
	region := config.GetString(c, "S3_REGION", config.GetString(c, "AWS_REGION", "us-east-1"))
	endpoint := config.GetString(c, "S3_ENDPOINT", "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := config.GetString(c, "S3_PUBLIC_BASE_URL", "")
	if baseURL == "" {
		if endpoint != "" {
			baseURL = strings.TrimRight(endpoint, "/") + "/" + bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
	}
	return NewS3ImageStore(client, bucket, baseURL), nil
}

func (s *S3ImageStore) Upload(ctx context.Context, localPath, folder string) (string, error) {
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", errs.NewStorageError("read image", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", errs.NewUnsupportedMediaTypeError(mtype.String(), []string{"image/*"})
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", errs.NewStorageError("read image", err)
	}
	defer f.Close()

	key := path.Join(folder, uuid.NewString()+mtype.Extension())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(mtype.String()),
	})
	if err != nil {
		return "", errs.NewStorageError("upload image", err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("Uploaded project image")
	return s.baseURL + "/" + key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, imageURL string) error {
	key, ok := s.KeyFromURL(imageURL)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errs.NewStorageError("delete image", err)
	}
	return nil
}

// KeyFromURL extracts the object key from a URL issued by Upload. Empty and
// foreign URLs report false.
func (s *S3ImageStore) KeyFromURL(imageURL string) (string, bool) {
	prefix := s.baseURL + "/"
	if imageURL == "" || !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(imageURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}
