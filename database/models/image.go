package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category 图片所属实体类型
type Category string

const (
	CategoryPost Category = "POST"
	CategoryUser Category = "USER"
)

// ParseCategory 解析类型，不区分大小写
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryPost:
		return CategoryPost, nil
	case CategoryUser:
		return CategoryUser, nil
	default:
		return "", fmt.Errorf("invalid image category: %q", s)
	}
}

// Folder 返回存储目录名
func (c Category) Folder() string {
	switch c {
	case CategoryPost:
		return "posts"
	case CategoryUser:
		return "users"
	default:
		return strings.ToLower(string(c))
	}
}

// IsValid 是否为已知类型
func (c Category) IsValid() bool {
	return c == CategoryPost || c == CategoryUser
}

// CategoryFromFolder 根据存储目录名反查类型
func CategoryFromFolder(folder string) (Category, bool) {
	switch folder {
	case "posts":
		return CategoryPost, true
	case "users":
		return CategoryUser, true
	default:
		return "", false
	}
}

// Image 图片元数据
type Image struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileName  string    `gorm:"uniqueIndex:idx_file_name;not null" json:"file_name"`
	FilePath  string    `gorm:"not null" json:"file_path"`
	FileURL   string    `gorm:"not null" json:"file_url"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index:idx_owner_category,priority:1;not null" json:"owner_id"`
	Category  Category  `gorm:"type:varchar(16);index:idx_owner_category,priority:2;not null" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func (Image) TableName() string {
	return "images"
}

func (m *Image) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
