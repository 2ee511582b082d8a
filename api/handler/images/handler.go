package images

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/anoixa/image-api/api/common"
	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/database/models"
	"github.com/anoixa/image-api/internal/image"
	"github.com/anoixa/image-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Limits 上传限制
type Limits struct {
	MaxFileSize  int64
	MaxBatchSize int64
	MaxFiles     int
}

// LimitsFromConfig 从配置读取上传限制
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		MaxFileSize:  int64(cfg.UploadMaxSizeMB) << 20,
		MaxBatchSize: int64(cfg.UploadMaxBatchTotalMB) << 20,
		MaxFiles:     cfg.UploadMaxFiles,
	}
}

// Handler 图片处理器
type Handler struct {
	service *image.Service
	limits  Limits
}

// NewHandler 图片处理器
func NewHandler(service *image.Service, limits Limits) *Handler {
	return &Handler{
		service: service,
		limits:  limits,
	}
}

// inputError 请求参数错误，映射为 400
type inputError struct {
	status int
	msg    string
}

func (e *inputError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &inputError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// parseScope 解析 ownerId 与 type
func parseScope(ownerID, category string) (uuid.UUID, models.Category, error) {
	id, err := uuid.Parse(strings.TrimSpace(ownerID))
	if err != nil {
		return uuid.Nil, "", badRequest("invalid ownerId: %q", ownerID)
	}
	cat, err := models.ParseCategory(category)
	if err != nil {
		return uuid.Nil, "", badRequest("invalid type: %q", category)
	}
	return id, cat, nil
}

// formFiles 读取 multipart 字段，同时接受 name 与 name[]
func formFiles(form *multipart.Form, name string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File[name]...)
	return append(files, form.File[name+"[]"]...)
}

// checkLimits 校验数量与大小
func (h *Handler) checkLimits(files []*multipart.FileHeader) error {
	if h.limits.MaxFiles > 0 && len(files) > h.limits.MaxFiles {
		return badRequest("maximum %d files allowed per request", h.limits.MaxFiles)
	}

	var total int64
	for _, f := range files {
		if h.limits.MaxFileSize > 0 && f.Size > h.limits.MaxFileSize {
			return &inputError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("file %s (%s) exceeds maximum allowed size (%s)", f.Filename, utils.HumanReadableSize(f.Size), utils.HumanReadableSize(h.limits.MaxFileSize)),
			}
		}
		total += f.Size
	}
	if h.limits.MaxBatchSize > 0 && total > h.limits.MaxBatchSize {
		return &inputError{
			status: http.StatusRequestEntityTooLarge,
			msg:    fmt.Sprintf("total size of all files (%s) exceeds maximum allowed (%s)", utils.HumanReadableSize(total), utils.HumanReadableSize(h.limits.MaxBatchSize)),
		}
	}
	return nil
}

// openFiles 打开上传文件，返回的 closeAll 必须被调用
func openFiles(headers []*multipart.FileHeader) ([]image.File, func(), error) {
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]image.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, badRequest("failed to read file %s", fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, image.File{Name: fh.Filename, Content: f})
	}
	return files, closeAll, nil
}

// respondServiceError 将领域错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error) {
	var inErr *inputError
	var upErr *image.UploadError
	switch {
	case errors.As(err, &inErr):
		common.RespondError(c, inErr.status, inErr.msg)
	case errors.Is(err, image.ErrNotFound):
		common.RespondError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &upErr) && upErr.Err == nil:
		// 文件本身被拒绝，例如文件名为空或内容不是图片
		common.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, image.ErrUpload), errors.Is(err, image.ErrDeletion):
		common.RespondError(c, http.StatusInternalServerError, err.Error())
	default:
		log.Printf("[ImageHandler] Unexpected error: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
