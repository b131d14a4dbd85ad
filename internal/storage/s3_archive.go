package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/sirupsen/logrus"
)

// ErrObjectNotFound indica que la clave no existe en el bucket
var ErrObjectNotFound = errors.New("object not found")

// ObjectAPI es el subconjunto del cliente S3 que usa el archivo
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Archive guarda los documentos generados en un bucket S3 compatible
// (Supabase Storage, MinIO o AWS).
type S3Archive struct {
	client   ObjectAPI
	bucket   string
	endpoint string
	logger   *logrus.Logger
}

// NewS3Archive crea el cliente S3 con credenciales estáticas y path-style,
// que es lo que exigen Supabase y MinIO.
func NewS3Archive(ctx context.Context, cfg config.StorageConfig, logger *logrus.Logger) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return NewS3ArchiveWithClient(client, cfg.Bucket, cfg.Endpoint, logger), nil
}

// NewS3ArchiveWithClient arma el archivo sobre un cliente ya construido
func NewS3ArchiveWithClient(client ObjectAPI, bucket, endpoint string, logger *logrus.Logger) *S3Archive {
	return &S3Archive{
		client:   client,
		bucket:   bucket,
		endpoint: strings.TrimRight(endpoint, "/"),
		logger:   logger,
	}
}

// HealthCheck verifica que el bucket exista y sea accesible
func (a *S3Archive) HealthCheck(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		return fmt.Errorf("error checking storage bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Put sube un objeto y retorna su URL dentro del endpoint configurado
func (a *S3Archive) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading %s to storage: %w", key, err)
	}

	url := a.URL(key)
	a.logger.WithFields(logrus.Fields{
		"bucket": a.bucket,
		"key":    key,
		"size":   len(data),
	}).Info("Document archived")

	return url, nil
}

// Get descarga un objeto completo
func (a *S3Archive) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("error downloading %s from storage: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}
	return data, nil
}

// URL retorna la dirección path-style del objeto
func (a *S3Archive) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, key)
}
