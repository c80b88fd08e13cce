package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alaris-labs/papergraph/pkg/loader"
)

// ObjectGetter is the part of the S3 API the loader needs. *s3.Client
// satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// FileLoader is a SourceLoader that loads file contents from an S3
// bucket. It uses the AWS SDK v2 for Go.
type FileLoader struct {
	bucket string
	client ObjectGetter
	cache  *loader.Cache
}

// NewFileLoaderWithClient creates a new FileLoader using an existing
// client, e.g. one shared with the upload storage.
func NewFileLoaderWithClient(bucket string, client ObjectGetter) *FileLoader {
	return &FileLoader{
		bucket: bucket,
		client: client,
		cache:  loader.NewCache(),
	}
}

// NewFileLoaderParams defines the configuration parameters for
// creating a new FileLoader.
//
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
type NewFileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewClient builds an S3 client with static credentials for the given
// endpoint and region.
func NewClient(ctx context.Context, params NewFileLoaderParams) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if params.Endpoint != "" {
			o.BaseEndpoint = aws.String(params.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewFileLoader creates a new FileLoader with its own S3 client.
//
// Example:
//
//	l, err := s3.NewFileLoader(ctx, s3.NewFileLoaderParams{
//		Bucket:    "papers",
//		Endpoint:  "http://localhost:9000",
//		Region:    "us-east-1",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
//		SecretKey: os.Getenv("AWS_SECRET_KEY"),
//	})
//	if err != nil {
//		return err
//	}
//	file := loader.NewSourceFile("1", "uploads/paper.pdf", l)
func NewFileLoader(ctx context.Context, params NewFileLoaderParams) (*FileLoader, error) {
	client, err := NewClient(ctx, params)
	if err != nil {
		return nil, err
	}
	return NewFileLoaderWithClient(params.Bucket, client), nil
}

// GetFileBytes retrieves the object stored under file.FilePath.
func (l *FileLoader) GetFileBytes(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(file), func() ([]byte, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.FilePath),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get s3://%s/%s: %w", l.bucket, file.FilePath, err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}
