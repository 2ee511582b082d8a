package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现，作用域为集合
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	s := &WebDAVStorage{
		client:   client,
		rootPath: rootPath,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 根目录不存在时创建
	if err := s.do(ctx, func() error { return client.MkdirAll(s.fullPath(""), 0755) }); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return s, nil
}

// do 在独立 goroutine 中执行阻塞调用，并响应上下文取消
func (s *WebDAVStorage) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	storagePath = strings.TrimLeft(storagePath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + storagePath
	}
	return "/" + storagePath
}

// stat 返回条目信息，不存在时返回 ErrNotExist
func (s *WebDAVStorage) stat(ctx context.Context, fullPath string) (os.FileInfo, error) {
	var info os.FileInfo
	err := s.do(ctx, func() error {
		var err error
		info, err = s.client.Stat(fullPath)
		return err
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return info, nil
}

// CreateScope 创建集合
func (s *WebDAVStorage) CreateScope(ctx context.Context, scope string) error {
	if err := validatePath(scope); err != nil {
		return err
	}
	if err := s.do(ctx, func() error { return s.client.MkdirAll(s.fullPath(scope), 0755) }); err != nil {
		return fmt.Errorf("failed to create scope %s: %w", scope, err)
	}
	return nil
}

// WriteBlob 保存文件到 WebDAV
func (s *WebDAVStorage) WriteBlob(ctx context.Context, storagePath string, content io.Reader) error {
	if err := validatePath(storagePath); err != nil {
		return err
	}

	fullPath := s.fullPath(storagePath)
	if err := s.do(ctx, func() error { return s.client.MkdirAll(path.Dir(fullPath), 0755) }); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", storagePath, err)
	}

	if err := s.do(ctx, func() error { return s.client.WriteStream(fullPath, content, 0644) }); err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

// Exists 检查文件或集合是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	if err := validatePath(storagePath); err != nil {
		return false, err
	}

	_, err := s.stat(ctx, s.fullPath(storagePath))
	if err == ErrNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// readDir 读取集合内容
func (s *WebDAVStorage) readDir(ctx context.Context, fullPath string) ([]os.FileInfo, error) {
	var infos []os.FileInfo
	err := s.do(ctx, func() error {
		var err error
		infos, err = s.client.ReadDir(fullPath)
		return err
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return infos, nil
}

// ListRegularEntries 列出集合下的普通文件
func (s *WebDAVStorage) ListRegularEntries(ctx context.Context, scope string) ([]string, error) {
	if err := validatePath(scope); err != nil {
		return nil, err
	}

	infos, err := s.readDir(ctx, s.fullPath(scope))
	if err != nil {
		if err == ErrNotExist {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read scope %s: %w", scope, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteBlob 删除单个文件
func (s *WebDAVStorage) DeleteBlob(ctx context.Context, storagePath string) error {
	if err := validatePath(storagePath); err != nil {
		return err
	}

	fullPath := s.fullPath(storagePath)
	info, err := s.stat(ctx, fullPath)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotExist
	}

	if err := s.do(ctx, func() error { return s.client.Remove(fullPath) }); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", storagePath, err)
	}
	return nil
}

// DeleteTree 先删除文件，再自底向上删除集合
func (s *WebDAVStorage) DeleteTree(ctx context.Context, scope string) error {
	if err := validatePath(scope); err != nil {
		return err
	}

	root := s.fullPath(scope)
	if _, err := s.stat(ctx, root); err != nil {
		return err
	}

	var files, dirs []string
	var walk func(dir string) error
	walk = func(dir string) error {
		infos, err := s.readDir(ctx, dir)
		if err != nil {
			return err
		}
		for _, info := range infos {
			child := path.Join(dir, info.Name())
			if info.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			files = append(files, child)
		}
		dirs = append(dirs, dir)
		return nil
	}
	if err := walk(root); err != nil {
		return fmt.Errorf("failed to walk scope %s: %w", scope, err)
	}

	// walk 为后序遍历，dirs 已是子集合在前
	for _, p := range append(files, dirs...) {
		target := p
		if err := s.do(ctx, func() error { return s.client.Remove(target) }); err != nil {
			return fmt.Errorf("failed to delete %s: %w", target, err)
		}
	}
	return nil
}

// Open 读取文件流
func (s *WebDAVStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if err := validatePath(storagePath); err != nil {
		return nil, err
	}

	fullPath := s.fullPath(storagePath)
	info, err := s.stat(ctx, fullPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotExist
	}

	var rc io.ReadCloser
	err = s.do(ctx, func() error {
		var err error
		rc, err = s.client.ReadStream(fullPath)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", storagePath, err)
	}
	return rc, nil
}

// Location 返回文件的完整 URL
func (s *WebDAVStorage) Location(storagePath string) string {
	return s.baseURL + s.fullPath(storagePath)
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("webdav client not initialized")
	}
	_, err := s.readDir(ctx, s.fullPath(""))
	return err
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}
