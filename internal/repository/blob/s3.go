package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/TjarkGerken/eu-data-tiles/internal/config"
	"github.com/TjarkGerken/eu-data-tiles/internal/domain/repository"
)

// Store is the S3 object store holding every artifact the service serves.
type Store struct {
	client *s3.S3
	bucket string
	prefix string
	logger *zap.Logger
}

func NewStore(cfg *config.StorageConfig, logger *zap.Logger) (*Store, error) {
	awsConfig := aws.Config{
		Region:     aws.String(cfg.Region),
		MaxRetries: aws.Int(3),
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{Config: awsConfig})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	logger.Info("Object store client ready",
		zap.String("bucket", cfg.Bucket),
		zap.String("prefix", cfg.ArtifactPrefix),
	)

	return &Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.ArtifactPrefix, "/"),
		logger: logger,
	}, nil
}

var _ repository.BlobRepository = (*Store)(nil)

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		s.logger.Error("Object store get failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("object store get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		// A partially-read variant counts as a miss for the caller; it
		// must never serve truncated bytes.
		s.logger.Error("Object store read failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("object store read %s: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("Object store put failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("object store put %s: %w", key, err)
	}

	s.logger.Debug("Object stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("object store head %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		s.logger.Error("Object store delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("object store delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]repository.StoredObject, error) {
	var objects []repository.StoredObject

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := aws.StringValue(obj.Key)
				if s.prefix != "" {
					key = strings.TrimPrefix(key, s.prefix+"/")
				}
				if key == "" {
					continue
				}
				objects = append(objects, repository.StoredObject{
					Key:       key,
					SizeBytes: aws.Int64Value(obj.Size),
				})
			}
			return true
		})
	if err != nil {
		s.logger.Error("Object store list failed", zap.Error(err))
		return nil, fmt.Errorf("object store list: %w", err)
	}
	return objects, nil
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
