package s3

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
)

// objectGetter is the subset of the S3 client used by the loader.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3GraphFileLoader is a ByteLoader implementation that loads paper
// contents from an S3 bucket. FilePath of the PaperFile is the object key.
type S3GraphFileLoader struct {
	bucket string
	client objectGetter

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3GraphFileLoaderWithClient creates a new S3GraphFileLoader using an
// existing s3.Client.
func NewS3GraphFileLoaderWithClient(bucket string, client *s3.Client) *S3GraphFileLoader {
	return newS3GraphFileLoader(bucket, client)
}

func newS3GraphFileLoader(bucket string, client objectGetter) *S3GraphFileLoader {
	return &S3GraphFileLoader{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3GraphFileLoaderParams defines the configuration parameters for
// creating a new S3GraphFileLoader.
//
// Endpoint allows overriding the S3 endpoint for S3-compatible storage
// such as MinIO.
type NewS3GraphFileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3GraphFileLoader creates a new S3GraphFileLoader with static credentials.
func NewS3GraphFileLoader(ctx context.Context, params NewS3GraphFileLoaderParams) (*S3GraphFileLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return newS3GraphFileLoader(params.Bucket, client), nil
}

// GetFileBytes retrieves the object for the given PaperFile. Results are cached.
func (l *S3GraphFileLoader) GetFileBytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	cacheKey := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[cacheKey]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(cacheKey, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[cacheKey]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.FilePath),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}

		byts := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[cacheKey] = byts
		l.cacheMu.Unlock()

		return byts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
