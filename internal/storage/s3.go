package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	s3loader "github.com/OFFIS-RIT/papergraph/pkg/loader/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectStore is the subset of the S3 client used for uploads.
type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func NewS3Client(ctx context.Context, cfg config.Storage) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithBaseEndpoint(cfg.Endpoint),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// S3Storage stores uploads as <prefix>/<id>/<file name> in a bucket.
type S3Storage struct {
	bucket string
	prefix string
	client objectStore
	loader loader.ByteLoader
	newID  func() (string, error)
}

func NewS3Storage(client *s3.Client, bucket, prefix string) *S3Storage {
	return newS3Storage(client, bucket, prefix, s3loader.NewS3GraphFileLoaderWithClient(bucket, client))
}

func newS3Storage(client objectStore, bucket, prefix string, l loader.ByteLoader) *S3Storage {
	return &S3Storage{
		bucket: bucket,
		prefix: prefix,
		client: client,
		loader: l,
		newID:  newID,
	}
}

func (s *S3Storage) Put(ctx context.Context, name string, r io.Reader) (loader.PaperFile, error) {
	id, err := s.newID()
	if err != nil {
		return loader.PaperFile{}, fmt.Errorf("failed to generate upload id: %w", err)
	}
	name = cleanFileName(name)
	key := path.Join(s.prefix, id, name)

	// the SDK needs a seekable body to sign the payload
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return loader.PaperFile{}, fmt.Errorf("failed to read upload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if mimeType := mime.TypeByExtension(path.Ext(name)); mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return loader.PaperFile{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return loader.NewPaperFile(loader.NewPaperFileParams{
		ID:        id,
		FilePath:  key,
		PaperName: loader.PaperNameFromPath(name),
		Source:    loader.PaperSourceS3,
		Loader:    s.loader,
	}), nil
}

func (s *S3Storage) Delete(ctx context.Context, file loader.PaperFile) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(file.FilePath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
