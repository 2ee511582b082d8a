package images

import "github.com/anoixa/image-api/database/models"

// ImageDTO 图片响应体
type ImageDTO struct {
	ID       string `json:"id" example:"7d7c2f1e-4f55-4c1e-9d6a-0d1c8f2b9a10"`
	FileName string `json:"fileName" example:"0b5e3c58-2f0e-4c9a-8d7f-3a6f7c1d2e4b_cat.png"`
	FileURL  string `json:"fileUrl" example:"http://localhost:8080/images/posts/7d7c2f1e-4f55-4c1e-9d6a-0d1c8f2b9a10/0b5e3c58-2f0e-4c9a-8d7f-3a6f7c1d2e4b_cat.png"`
}

func toDTO(m *models.Image) ImageDTO {
	return ImageDTO{
		ID:       m.ID.String(),
		FileName: m.FileName,
		FileURL:  m.FileURL,
	}
}

func toDTOs(list []*models.Image) []ImageDTO {
	out := make([]ImageDTO, 0, len(list))
	for _, m := range list {
		out = append(out, toDTO(m))
	}
	return out
}

// ExistingImage 保留的图片
type ExistingImage struct {
	ID string `json:"id"`
}

// UpdateRequest PUT 请求中 data 字段的 JSON 内容
type UpdateRequest struct {
	OwnerID        string          `json:"ownerId"`
	Type           string          `json:"type"`
	Category       string          `json:"category"`
	ExistingImages []ExistingImage `json:"existingImages"`
}

// category 返回 type，缺省时使用 category
func (r *UpdateRequest) category() string {
	if r.Type != "" {
		return r.Type
	}
	return r.Category
}
