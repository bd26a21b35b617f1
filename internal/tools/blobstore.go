package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Charts are served straight to browsers, so uploads carry a short
// cache lifetime to keep refreshed images from going stale at the edge.
const blobCacheControl = "public, max-age=300"

type s3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads rendered chart images to an S3 bucket and hands back
// the public object URL for embedding in report markdown.
type S3Store struct {
	client s3Putter
	bucket string
	region string
	log    *zap.Logger
}

// NewS3Store builds a store from the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region string, log *zap.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("blob store: bucket name is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("blob store: load aws config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(cfg), bucket, region, log), nil
}

func newS3Store(client s3Putter, bucket, region string, log *zap.Logger) *S3Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Store{client: client, bucket: bucket, region: region, log: log}
}

// Upload puts the local file into the bucket and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	s.log.Info("uploading blob", zap.String("path", localPath), zap.String("object", objectName))

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("blob store: open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectName),
		Body:         f,
		ContentType:  aws.String("image/png"),
		CacheControl: aws.String(blobCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("blob store: put %s: %w", objectName, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectName), nil
}
