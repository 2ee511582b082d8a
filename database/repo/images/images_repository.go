package images

import (
	"context"
	"errors"

	"github.com/anoixa/image-api/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = gorm.ErrRecordNotFound

// Scope 所有者作用域
type Scope struct {
	OwnerID  uuid.UUID
	Category models.Category
}

// Repository 图片元数据仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的图片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert 插入图片记录
func (r *Repository) Insert(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// FindByOwnerAndCategory 获取作用域下的全部记录，按创建时间排序
func (r *Repository) FindByOwnerAndCategory(ctx context.Context, ownerID uuid.UUID, category models.Category) ([]*models.Image, error) {
	var images []*models.Image
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND category = ?", ownerID, category).
		Order("created_at asc, file_name asc").
		Find(&images).Error
	return images, err
}

// FindByFileName 通过文件名获取记录，不存在时返回 ErrNotFound
func (r *Repository) FindByFileName(ctx context.Context, fileName string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).Where("file_name = ?", fileName).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// DeleteByFileName 通过文件名删除记录
func (r *Repository) DeleteByFileName(ctx context.Context, fileName string) (int64, error) {
	result := r.db.WithContext(ctx).Where("file_name = ?", fileName).Delete(&models.Image{})
	return result.RowsAffected, result.Error
}

// Delete 删除记录
func (r *Repository) Delete(ctx context.Context, image *models.Image) error {
	if image == nil || image.ID == uuid.Nil {
		return errors.New("image id is required")
	}
	return r.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", image.ID).Error
}

// DeleteByOwnerAndCategory 删除作用域下的全部记录
func (r *Repository) DeleteByOwnerAndCategory(ctx context.Context, ownerID uuid.UUID, category models.Category) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND category = ?", ownerID, category).
		Delete(&models.Image{})
	return result.RowsAffected, result.Error
}

// FileNames 获取作用域下的全部文件名
func (r *Repository) FileNames(ctx context.Context, ownerID uuid.UUID, category models.Category) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("owner_id = ? AND category = ?", ownerID, category).
		Order("file_name asc").
		Pluck("file_name", &names).Error
	return names, err
}

// ListScopes 列出存在记录的全部作用域
func (r *Repository) ListScopes(ctx context.Context) ([]Scope, error) {
	var scopes []Scope
	err := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Distinct("owner_id", "category").
		Order("category asc, owner_id asc").
		Scan(&scopes).Error
	return scopes, err
}

// Count 统计记录总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).Count(&total).Error
	return total, err
}
