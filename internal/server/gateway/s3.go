package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for unit tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// s3API is the slice of the S3 client the gateway actually uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Config holds connection settings for the S3-compatible media backend.
// Credentials are passed explicitly; the gateway never reads ambient
// process-wide credential state.
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	PresignTTL   time.Duration
}

// S3Gateway implements MediaGateway over an S3-compatible backend
// (MinIO in development).
type S3Gateway struct {
	api          s3API
	presigner    s3Presigner
	bucket       string
	baseEndpoint string
	presignTTL   time.Duration
}

// NewS3Gateway builds the gateway from explicit credentials and endpoint
// settings.
func NewS3Gateway(ctx context.Context, cfg S3Config) (*S3Gateway, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Gateway{
		api:          client,
		presigner:    newS3PresignClient(client),
		bucket:       cfg.Bucket,
		baseEndpoint: cfg.BaseEndpoint,
		presignTTL:   ttl,
	}, nil
}

func (g *S3Gateway) Upload(ctx context.Context, prefix string, blob []byte, contentType string, onProgress ProgressFunc) (StoredMedia, error) {
	key := NewStorageKey(prefix)

	in := &s3.PutObjectInput{
		Bucket:        &g.bucket,
		Key:           &key,
		Body:          newProgressReader(bytes.NewReader(blob), onProgress),
		ContentLength: aws.Int64(int64(len(blob))),
	}
	if contentType != "" {
		in.ContentType = &contentType
	}

	if _, err := g.api.PutObject(ctx, in); err != nil {
		return StoredMedia{}, fmt.Errorf("put object: %w", err)
	}

	return StoredMedia{ID: key, URL: g.objectURL(key)}, nil
}

func (g *S3Gateway) Delete(ctx context.Context, mediaID string) error {
	_, err := g.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &g.bucket,
		Key:    &mediaID,
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (g *S3Gateway) Fetch(ctx context.Context, mediaID string) ([]byte, string, error) {
	out, err := g.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &g.bucket,
		Key:    &mediaID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	blob, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read object body: %w", err)
	}

	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return blob, contentType, nil
}

func (g *S3Gateway) PresignGet(ctx context.Context, mediaID string) (string, error) {
	req, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &g.bucket,
		Key:    &mediaID,
	}, s3.WithPresignExpires(g.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func (g *S3Gateway) objectURL(key string) string {
	return strings.TrimSuffix(g.baseEndpoint, "/") + "/" + g.bucket + "/" + key
}
