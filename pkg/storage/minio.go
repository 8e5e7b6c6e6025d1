package storage

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/errs"
)

// Mirror 把已写入本地的结果额外上传到其他存储
type Mirror interface {
	Upload(ctx context.Context, name, text string) (string, error)
}

// MinioMirror MinIO 对象存储镜像，bucket 在第一次上传时创建
type MinioMirror struct {
	client        *minio.Client
	bucket        string
	prefix        string
	bucketEnsured bool
}

// NewMinioMirror 创建 MinIO 客户端，不会发起网络请求
func NewMinioMirror(cfg config.MinioConfig) (*MinioMirror, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	bucket := strings.TrimSpace(cfg.Bucket)
	if endpoint == "" || bucket == "" {
		return nil, errs.Configf("minio endpoint and bucket are required")
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.Secure,
		Transport: transport,
		Region:    "us-east-1",
	})
	if err != nil {
		return nil, errs.Configf("minio client initialization failed: %w", err)
	}
	return &MinioMirror{client: client, bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// ObjectName 返回对象路径 <prefix>/<name>
func (m *MinioMirror) ObjectName(name string) string {
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// Upload 上传文本，返回 minio://bucket/object 形式的地址
func (m *MinioMirror) Upload(ctx context.Context, name, text string) (string, error) {
	if !m.bucketEnsured {
		if err := m.ensureBucket(ctx); err != nil {
			return "", fmt.Errorf("minio ensure bucket failed: %w", err)
		}
		m.bucketEnsured = true
	}
	object := m.ObjectName(name)
	r := strings.NewReader(text)
	_, err := m.client.PutObject(ctx, m.bucket, object, r, int64(len(text)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("minio put object %s failed: %w", object, err)
	}
	return "minio://" + path.Join(m.bucket, object), nil
}

func (m *MinioMirror) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}
