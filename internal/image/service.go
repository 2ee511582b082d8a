package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/anoixa/image-api/cache"
	"github.com/anoixa/image-api/database/models"
	"github.com/anoixa/image-api/database/repo/images"
	"github.com/anoixa/image-api/storage"
	"github.com/anoixa/image-api/utils"
	"github.com/anoixa/image-api/utils/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// File 待上传文件
type File struct {
	Name    string
	Content io.Reader
}

// Repository 图片元数据访问接口
type Repository interface {
	Insert(ctx context.Context, image *models.Image) error
	FindByOwnerAndCategory(ctx context.Context, ownerID uuid.UUID, category models.Category) ([]*models.Image, error)
	FindByFileName(ctx context.Context, fileName string) (*models.Image, error)
	DeleteByFileName(ctx context.Context, fileName string) (int64, error)
	Delete(ctx context.Context, image *models.Image) error
	DeleteByOwnerAndCategory(ctx context.Context, ownerID uuid.UUID, category models.Category) (int64, error)
	FileNames(ctx context.Context, ownerID uuid.UUID, category models.Category) ([]string, error)
	ListScopes(ctx context.Context) ([]images.Scope, error)
}

// Options 服务选项
type Options struct {
	// BaseURL 公开访问前缀，file_url = {BaseURL}/{folder}/{ownerId}/{fileName}
	BaseURL string
	// Cache 为 nil 时不缓存列表
	Cache    cache.Provider
	CacheTTL time.Duration
	// ImagesOnly 拒绝非图片内容
	ImagesOnly bool
}

// Service 所有者图片存储服务
type Service struct {
	storage    storage.Provider
	repo       Repository
	baseURL    string
	cache      cache.Provider
	cacheTTL   time.Duration
	imagesOnly bool

	locks *scopeLocker
	group singleflight.Group
}

// NewService 创建图片服务
func NewService(storageProvider storage.Provider, repo Repository, opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		storage:    storageProvider,
		repo:       repo,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cache:      opts.Cache,
		cacheTTL:   ttl,
		imagesOnly: opts.ImagesOnly,
		locks:      newScopeLocker(),
	}
}

// preparedFile 已校验并生成存储名的文件
type preparedFile struct {
	original string
	name     string
	content  io.Reader
}

func scopeKey(ownerID uuid.UUID, category models.Category) string {
	return string(category) + ":" + ownerID.String()
}

func (s *Service) imageURL(category models.Category, ownerID uuid.UUID, fileName string) string {
	return utils.BuildImageURL(s.baseURL, category.Folder(), ownerID.String(), fileName)
}

// prepare 校验全部文件并生成唯一文件名，任何文件不合法时不做任何写入
func (s *Service) prepare(ownerID uuid.UUID, files []File) ([]preparedFile, error) {
	prepared := make([]preparedFile, 0, len(files))
	for _, f := range files {
		name, ok := generateFileName(f.Name)
		if !ok || f.Content == nil {
			return nil, &UploadError{Identifier: ownerID.String(), Msg: "invalid file name"}
		}

		content := f.Content
		if s.imagesOnly {
			mimeType, isImage, full, err := validator.SniffImage(f.Content)
			if err != nil {
				return nil, &UploadError{Identifier: ownerID.String(), Msg: "failed to read file " + f.Name, Err: err}
			}
			if !isImage {
				return nil, &UploadError{
					Identifier: ownerID.String(),
					Msg:        fmt.Sprintf("unsupported file type %s for %s", mimeType, f.Name),
				}
			}
			content = full
		}

		prepared = append(prepared, preparedFile{original: f.Name, name: name, content: content})
	}
	return prepared, nil
}

// store 逐个写入文件与记录，失败时终止，已写入的文件保留
func (s *Service) store(ctx context.Context, ownerID uuid.UUID, category models.Category, files []preparedFile) error {
	if len(files) == 0 {
		return nil
	}

	folder := category.Folder()
	scope := storage.ScopePath(folder, ownerID.String())
	if err := s.storage.CreateScope(ctx, scope); err != nil {
		return &UploadError{Identifier: ownerID.String(), Msg: "failed to create image directory", Err: err}
	}

	for _, f := range files {
		blobPath := storage.BlobPath(folder, ownerID.String(), f.name)
		if err := s.storage.WriteBlob(ctx, blobPath, f.content); err != nil {
			return &UploadError{Identifier: ownerID.String(), Msg: "failed to store image " + f.original, Err: err}
		}

		record := &models.Image{
			FileName: f.name,
			FilePath: s.storage.Location(blobPath),
			FileURL:  s.imageURL(category, ownerID, f.name),
			OwnerID:  ownerID,
			Category: category,
		}
		if err := s.repo.Insert(ctx, record); err != nil {
			return &UploadError{Identifier: ownerID.String(), Msg: "failed to save image record " + f.original, Err: err}
		}

		log.Printf("[ImageService] Stored %s for %s/%s", utils.SanitizeLogMessage(f.name), folder, ownerID)
	}
	return nil
}

// Upload 上传一批文件到作用域，返回作用域的完整列表
func (s *Service) Upload(ctx context.Context, files []File, ownerID uuid.UUID, category models.Category) ([]*models.Image, error) {
	if !category.IsValid() {
		return nil, &UploadError{Identifier: ownerID.String(), Msg: "invalid image category"}
	}

	prepared, err := s.prepare(ownerID, files)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(scopeKey(ownerID, category))
	defer unlock()

	err = s.store(ctx, ownerID, category, prepared)
	s.invalidate(ctx, ownerID, category)
	if err != nil {
		log.Printf("[ImageService] Upload failed: %v", err)
		return nil, err
	}

	return s.scan(ctx, ownerID, category)
}

// Reconcile 删除不在 keepIDs 中的图片，再写入新文件
func (s *Service) Reconcile(ctx context.Context, ownerID uuid.UUID, category models.Category, keepIDs []uuid.UUID, newFiles []File) ([]*models.Image, error) {
	if !category.IsValid() {
		return nil, &UploadError{Identifier: ownerID.String(), Msg: "invalid image category"}
	}

	prepared, err := s.prepare(ownerID, newFiles)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(scopeKey(ownerID, category))
	defer unlock()
	defer s.invalidate(ctx, ownerID, category)

	records, err := s.repo.FindByOwnerAndCategory(ctx, ownerID, category)
	if err != nil {
		return nil, &DeletionError{Identifier: ownerID.String(), Msg: "failed to load images", Err: err}
	}

	keep := make(map[uuid.UUID]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}

	folder := category.Folder()
	for _, record := range records {
		if _, ok := keep[record.ID]; ok {
			continue
		}

		blobPath := storage.BlobPath(folder, ownerID.String(), record.FileName)
		if err := s.storage.DeleteBlob(ctx, blobPath); err != nil {
			if !errors.Is(err, storage.ErrNotExist) {
				return nil, &DeletionError{Identifier: record.FileName, Msg: "failed to delete image", Err: err}
			}
			log.Printf("[ImageService] Blob already missing for %s, removing record only", utils.SanitizeLogMessage(record.FileName))
		}

		if err := s.repo.Delete(ctx, record); err != nil {
			return nil, &DeletionError{Identifier: record.FileName, Msg: "failed to delete image record", Err: err}
		}
	}

	if err := s.store(ctx, ownerID, category, prepared); err != nil {
		log.Printf("[ImageService] Reconcile upload failed: %v", err)
		return nil, err
	}

	return s.scan(ctx, ownerID, category)
}

// Delete 删除作用域内的单个文件及其记录
func (s *Service) Delete(ctx context.Context, fileName string, category models.Category, ownerID uuid.UUID) error {
	if !category.IsValid() {
		return &NotFoundError{Identifier: fileName, Msg: "image not found"}
	}

	blobPath := storage.BlobPath(category.Folder(), ownerID.String(), fileName)
	if strings.Contains(fileName, "/") || !storage.IsValidStoragePath(blobPath) {
		return &NotFoundError{Identifier: fileName, Msg: "image not found"}
	}

	unlock := s.locks.Lock(scopeKey(ownerID, category))
	defer unlock()

	exists, err := s.storage.Exists(ctx, blobPath)
	if err != nil {
		return &DeletionError{Identifier: fileName, Msg: "failed to delete image", Err: err}
	}
	if !exists {
		return &NotFoundError{Identifier: fileName, Msg: "image not found"}
	}

	defer s.invalidate(ctx, ownerID, category)

	if err := s.storage.DeleteBlob(ctx, blobPath); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return &NotFoundError{Identifier: fileName, Msg: "image not found"}
		}
		return &DeletionError{Identifier: fileName, Msg: "failed to delete image", Err: err}
	}

	// 文件已删除但记录删除失败时会留下孤儿记录，由 OrphanScanner 处理
	if _, err := s.repo.DeleteByFileName(ctx, fileName); err != nil {
		return &DeletionError{Identifier: fileName, Msg: "failed to delete image record", Err: err}
	}

	log.Printf("[ImageService] Deleted %s from %s/%s", utils.SanitizeLogMessage(fileName), category.Folder(), ownerID)
	return nil
}

// DeleteAll 删除作用域内全部记录和文件
// 记录先于目录删除，目录不存在时记录仍被清除
func (s *Service) DeleteAll(ctx context.Context, ownerID uuid.UUID, category models.Category) error {
	if !category.IsValid() {
		return &NotFoundError{Identifier: ownerID.String(), Msg: "no images found for owner"}
	}

	unlock := s.locks.Lock(scopeKey(ownerID, category))
	defer unlock()
	defer s.invalidate(ctx, ownerID, category)

	removed, err := s.repo.DeleteByOwnerAndCategory(ctx, ownerID, category)
	if err != nil {
		return &DeletionError{Identifier: ownerID.String(), Msg: "failed to delete image records", Err: err}
	}

	scope := storage.ScopePath(category.Folder(), ownerID.String())
	if err := s.storage.DeleteTree(ctx, scope); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return &NotFoundError{Identifier: ownerID.String(), Msg: "no images found for owner"}
		}
		return &DeletionError{Identifier: ownerID.String(), Msg: "failed to delete image directory", Err: err}
	}

	log.Printf("[ImageService] Deleted %d records and directory %s", removed, scope)
	return nil
}

// List 列出作用域内存在记录的文件，作用域不存在时返回空列表
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, category models.Category) ([]*models.Image, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("invalid image category: %q", category)
	}

	key := cache.OwnerImages.Build(string(category), ownerID.String())
	if s.cache != nil {
		var cached []*models.Image
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsCacheMiss(err) {
			log.Printf("[ImageService] Cache get failed for %s: %v", key, err)
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// 同一 flight 的调用方共享结果，不随首个调用方取消
		scanCtx := context.WithoutCancel(ctx)
		unlock := s.locks.RLock(scopeKey(ownerID, category))
		defer unlock()

		result, err := s.scan(scanCtx, ownerID, category)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(scanCtx, key, result, s.cacheTTL); err != nil {
				log.Printf("[ImageService] Cache set failed for %s: %v", key, err)
			}
		}
		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images for owner %s: %w", ownerID, err)
	}

	// 共享结果复制一份，调用方可以自由修改
	shared := v.([]*models.Image)
	result := make([]*models.Image, len(shared))
	for i, img := range shared {
		c := *img
		result[i] = &c
	}
	return result, nil
}

// scan 遍历作用域文件并关联记录，file_url 按当前前缀重新生成
func (s *Service) scan(ctx context.Context, ownerID uuid.UUID, category models.Category) ([]*models.Image, error) {
	scope := storage.ScopePath(category.Folder(), ownerID.String())
	names, err := s.storage.ListRegularEntries(ctx, scope)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return []*models.Image{}, nil
		}
		return nil, err
	}

	result := make([]*models.Image, 0, len(names))
	for _, name := range names {
		record, err := s.repo.FindByFileName(ctx, name)
		if err != nil {
			if errors.Is(err, images.ErrNotFound) {
				continue
			}
			return nil, err
		}
		record.FileURL = s.imageURL(category, ownerID, record.FileName)
		result = append(result, record)
	}
	return result, nil
}

// invalidate 清除作用域列表缓存
func (s *Service) invalidate(ctx context.Context, ownerID uuid.UUID, category models.Category) {
	if s.cache == nil {
		return
	}
	key := cache.OwnerImages.Build(string(category), ownerID.String())
	// 请求上下文可能已取消，缓存清除不受影响
	if err := s.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Printf("[ImageService] Cache invalidation failed for %s: %v", key, err)
	}
}

// Open 打开公开访问的文件
func (s *Service) Open(ctx context.Context, folder, ownerID, fileName string) (io.ReadCloser, error) {
	if _, ok := models.CategoryFromFolder(folder); !ok {
		return nil, &NotFoundError{Identifier: fileName, Msg: "image not found"}
	}
	blobPath := storage.BlobPath(folder, ownerID, fileName)
	if strings.Contains(fileName, "/") || !storage.IsValidStoragePath(blobPath) {
		return nil, &NotFoundError{Identifier: fileName, Msg: "image not found"}
	}

	rc, err := s.storage.Open(ctx, blobPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, &NotFoundError{Identifier: fileName, Msg: "image not found"}
		}
		return nil, err
	}
	return rc, nil
}

// Health 检查存储状态
func (s *Service) Health(ctx context.Context) error {
	return s.storage.Health(ctx)
}
