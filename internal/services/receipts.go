package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "tixup/internal/config"
	"tixup/internal/models"
)

// ReceiptStore archives completed order receipts
type ReceiptStore interface {
	// Save stores the receipt and returns where it was written
	Save(ctx context.Context, receipt *models.Receipt) (string, error)
}

// receiptKey returns receipts/YYYY/MM/<order number>.json
func receiptKey(receipt *models.Receipt) string {
	return fmt.Sprintf("receipts/%s/%s.json", receipt.CreatedAt.UTC().Format("2006/01"), receipt.OrderNumber)
}

func encodeReceipt(receipt *models.Receipt) ([]byte, error) {
	if err := receipt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid receipt: %w", err)
	}
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	return data, nil
}

// LocalReceiptStore writes receipts below a local directory
type LocalReceiptStore struct {
	basePath string
}

// NewLocalReceiptStore creates a store rooted at basePath
func NewLocalReceiptStore(basePath string) *LocalReceiptStore {
	return &LocalReceiptStore{basePath: basePath}
}

func (s *LocalReceiptStore) Save(ctx context.Context, receipt *models.Receipt) (string, error) {
	data, err := encodeReceipt(receipt)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(receiptKey(receipt)))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write receipt %s: %w", fullPath, err)
	}
	return fullPath, nil
}

// s3API is the part of the S3 client the R2 store needs
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// R2ReceiptStore writes receipts to a Cloudflare R2 bucket through the S3 API
type R2ReceiptStore struct {
	client s3API
	bucket string
}

// NewR2ReceiptStore creates an R2 store from configuration
func NewR2ReceiptStore(ctx context.Context, cfg appconfig.R2Config) (*R2ReceiptStore, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("R2 credentials not configured")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		} else {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		}
		o.UsePathStyle = true
	})

	return newR2ReceiptStore(client, cfg.BucketName), nil
}

func newR2ReceiptStore(client s3API, bucket string) *R2ReceiptStore {
	return &R2ReceiptStore{client: client, bucket: bucket}
}

// Bucket returns the bucket receipts are written to
func (s *R2ReceiptStore) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the receipt bucket when it does not exist yet.
// It reports whether the bucket was created.
func (s *R2ReceiptStore) EnsureBucket(ctx context.Context) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return false, nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return false, fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return true, nil
}

func (s *R2ReceiptStore) Save(ctx context.Context, receipt *models.Receipt) (string, error) {
	data, err := encodeReceipt(receipt)
	if err != nil {
		return "", err
	}

	key := strings.TrimPrefix(receiptKey(receipt), "/")
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt to R2: %w", err)
	}
	return fmt.Sprintf("r2://%s/%s", s.bucket, key), nil
}
