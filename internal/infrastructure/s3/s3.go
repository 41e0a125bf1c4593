package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"filevault-api/config"
	"filevault-api/internal/application/ports"
)

const (
	// metaOriginalFilename is stored as X-Amz-Meta-Original-Filename.
	metaOriginalFilename = "Original-Filename"
	// publicPrefix is the only prefix anonymous clients may read. Stored
	// file URLs point below it.
	publicPrefix = "uploads/"
)

type Client struct {
	logger  *zap.Logger
	mc      *minio.Client
	bucket  string
	baseURL string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.S3,
) (*Client, error) {
	c, err := newClient(logger, cfg)
	if err != nil {
		return nil, err
	}

	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", c.bucket, err)
	}
	if !exists {
		if err = c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", c.bucket, err)
		}
		logger.Info("s3 bucket created", zap.String("bucket", c.bucket))
	}

	policy, err := publicReadPolicy(c.bucket, publicPrefix)
	if err != nil {
		return nil, err
	}
	if err = c.mc.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return nil, fmt.Errorf("set bucket policy %q: %w", c.bucket, err)
	}

	logger.Info("s3 client ready", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", c.bucket))

	return c, nil
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

// publicReadPolicy grants anonymous s3:GetObject on prefix only. Listing
// and writes stay private.
func publicReadPolicy(bucket, prefix string) (string, error) {
	b, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{fmt.Sprintf("arn:aws:s3:::%s/%s*", bucket, prefix)},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(b), nil
}

func newClient(logger *zap.Logger, cfg config.S3) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.BucketUploads)
	}

	return &Client{
		logger:  logger,
		mc:      mc,
		bucket:  cfg.BucketUploads,
		baseURL: base,
	}, nil
}

func (c *Client) Upload(ctx context.Context, in ports.BlobUpload) (*ports.StoredObject, error) {
	info, err := c.mc.PutObject(
		ctx,
		c.bucket,
		in.Key,
		bytes.NewReader(in.Data),
		int64(len(in.Data)),
		minio.PutObjectOptions{
			ContentType: in.ContentType,
			UserMetadata: map[string]string{
				metaOriginalFilename: url.PathEscape(in.Filename),
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", in.Key, err)
	}

	return &ports.StoredObject{
		ObjectID:         info.Key,
		URL:              c.GetPublicURL(info.Key),
		OriginalFilename: in.Filename,
	}, nil
}

func (c *Client) Delete(ctx context.Context, objectID string) error {
	err := c.mc.RemoveObject(ctx, c.bucket, objectID, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove object %q: %w", objectID, err)
	}
	return nil
}

func (c *Client) PresignedURL(ctx context.Context, objectID string, expiry time.Duration) (string, error) {
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, objectID, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", objectID, err)
	}
	return u.String(), nil
}

func (c *Client) GetPublicURL(key string) string {
	return c.baseURL + "/" + key
}

func (c *Client) GetBucket() string { return c.bucket }
