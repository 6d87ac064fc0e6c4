// Package s3 处理S3存储操作.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/codevault/pkg/configs"
	nlog "github.com/yeisme/codevault/pkg/log"
)

// Client 包装 MinIO 客户端，所有对象写入同一个 bucket.
type Client struct {
	*minio.Client

	bucket string
	cfg    configs.S3Config
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	bkt := cfg.BucketName
	if bkt == "" {
		bkt = configs.DefaultS3BucketName
	}

	exists, err := cli.BucketExists(ctx, bkt)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bkt, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, bkt, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bkt, err)
		}

		nlog.Logger().Info().Str("bucket", bkt).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", bkt).Msg("s3 connected")

	return &Client{Client: cli, bucket: bkt, cfg: *cfg}, nil
}

// Bucket 返回使用中的 bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// PutContent 上传对象.
func (c *Client) PutContent(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// RemoveContent 删除对象，对象不存在时不报错.
func (c *Client) RemoveContent(ctx context.Context, key string) error {
	if err := c.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}

		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// PresignGet 生成带下载文件名的临时 GET 链接.
func (c *Client) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}

	u, err := c.PresignedGetObject(ctx, c.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return u.String(), nil
}

// HealthCheck 检查 bucket 可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("bucket %s not found", c.bucket)
	}

	return nil
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}

// GetConfig 返回创建客户端时的配置.
func (c *Client) GetConfig() configs.S3Config {
	return c.cfg
}
