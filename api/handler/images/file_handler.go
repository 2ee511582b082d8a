package images

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/anoixa/image-api/api/common"
	"github.com/anoixa/image-api/internal/image"
	"github.com/anoixa/image-api/utils"
	"github.com/anoixa/image-api/utils/pool"
	"github.com/anoixa/image-api/utils/validator"
	"github.com/gin-gonic/gin"
)

// GetImageFile 公开访问图片文件
func (h *Handler) GetImageFile(c *gin.Context) {
	fileName := c.Param("filename")

	rc, err := h.service.Open(c.Request.Context(), c.Param("folder"), c.Param("ownerId"), fileName)
	if err != nil {
		if errors.Is(err, image.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "Image file not found")
			return
		}
		log.Printf("[ImageHandler] Failed to open %s: %v", utils.SanitizeLogMessage(fileName), err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to read image file")
		return
	}
	defer rc.Close()

	mimeType, _, reader, err := validator.SniffImage(rc)
	if err != nil {
		log.Printf("[ImageHandler] Failed to read %s: %v", utils.SanitizeLogMessage(fileName), err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to read image file")
		return
	}

	c.Header("Content-Type", mimeType)
	c.Header("Cache-Control", "public, max-age=2592000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	buf := pool.Get()
	defer pool.Put(buf)

	if _, err := io.CopyBuffer(c.Writer, reader, *buf); err != nil && !utils.IsClientDisconnect(err) {
		log.Printf("[ImageHandler] Failed to stream %s: %v", utils.SanitizeLogMessage(fileName), err)
	}
}
