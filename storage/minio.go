package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig MinIO 配置
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// MinioStorage MinIO 对象存储实现，作用域为对象键前缀
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// mustGetSystemCertPool 获取系统证书池
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		log.Printf("[Storage] Failed to load system cert pool: %v", err)
		return x509.NewCertPool()
	}
	return pool
}

// NewMinioStorage 创建 MinIO 存储提供者，bucket 不存在时自动创建
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("minio bucket name is required")
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	if cfg.UseSSL {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if f := os.Getenv("SSL_CERT_FILE"); f != "" {
			rootCAs := mustGetSystemCertPool()
			if data, err := os.ReadFile(f); err == nil {
				rootCAs.AppendCertsFromPEM(data)
			}
			transport.TLSClientConfig.RootCAs = rootCAs
		}
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.BucketName, err)
		}
		log.Printf("[Storage] Created bucket: %s", cfg.BucketName)
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

func scopePrefix(scope string) string {
	return strings.TrimSuffix(scope, "/") + "/"
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// CreateScope 对象存储没有目录概念，无需创建
func (s *MinioStorage) CreateScope(ctx context.Context, scope string) error {
	return validatePath(scope)
}

// WriteBlob 上传对象
func (s *MinioStorage) WriteBlob(ctx context.Context, storagePath string, content io.Reader) error {
	if err := validatePath(storagePath); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucketName, storagePath, content, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object '%s' to minio: %w", storagePath, err)
	}
	return nil
}

// Exists 对象存在或前缀下存在对象时返回 true
func (s *MinioStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	if err := validatePath(storagePath); err != nil {
		return false, err
	}

	_, err := s.client.StatObject(ctx, s.bucketName, storagePath, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if !isNoSuchKey(err) {
		return false, fmt.Errorf("failed to stat object '%s': %w", storagePath, err)
	}

	// 提前返回时取消 ctx，结束 ListObjects 的后台协程
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(listCtx, s.bucketName, minio.ListObjectsOptions{
		Prefix:  scopePrefix(storagePath),
		MaxKeys: 1,
	}) {
		if obj.Err != nil {
			return false, fmt.Errorf("failed to list prefix '%s': %w", storagePath, obj.Err)
		}
		return true, nil
	}
	return false, nil
}

// ListRegularEntries 列出前缀下的直接子对象
func (s *MinioStorage) ListRegularEntries(ctx context.Context, scope string) ([]string, error) {
	if err := validatePath(scope); err != nil {
		return nil, err
	}

	prefix := scopePrefix(scope)
	var names []string
	found := false
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list scope '%s': %w", scope, obj.Err)
		}
		found = true
		name := strings.TrimPrefix(obj.Key, prefix)
		// 非递归列举时子目录以 "/" 结尾
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
	}
	if !found {
		return nil, ErrNotExist
	}

	sort.Strings(names)
	return names, nil
}

// DeleteBlob 删除对象
func (s *MinioStorage) DeleteBlob(ctx context.Context, storagePath string) error {
	if err := validatePath(storagePath); err != nil {
		return err
	}

	// RemoveObject 对不存在的键不报错，需要先确认
	if _, err := s.client.StatObject(ctx, s.bucketName, storagePath, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to stat object '%s': %w", storagePath, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, storagePath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object '%s' from minio: %w", storagePath, err)
	}
	return nil
}

// DeleteTree 递归列举前缀并按键倒序删除
func (s *MinioStorage) DeleteTree(ctx context.Context, scope string) error {
	if err := validatePath(scope); err != nil {
		return err
	}

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    scopePrefix(scope),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list scope '%s': %w", scope, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) == 0 {
		return ErrNotExist
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete object '%s' from minio: %w", key, err)
		}
	}
	return nil
}

// Open 获取对象流
func (s *MinioStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if err := validatePath(storagePath); err != nil {
		return nil, err
	}

	if _, err := s.client.StatObject(ctx, s.bucketName, storagePath, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to stat object '%s': %w", storagePath, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, storagePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object stream from minio for '%s': %w", storagePath, err)
	}
	return obj, nil
}

// Location 返回 s3 风格的对象地址
func (s *MinioStorage) Location(storagePath string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucketName, storagePath)
}

// Health 检查 bucket 可访问
func (s *MinioStorage) Health(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket '%s' does not exist", s.bucketName)
	}
	return nil
}

// Name 返回存储名称
func (s *MinioStorage) Name() string {
	return "minio"
}
