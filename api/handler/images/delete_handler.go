package images

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeleteImage 删除单张图片
// @Summary      Delete one image
// @Tags         images
// @Param        filename  path  string  true  "stored file name"
// @Param        ownerId   path  string  true  "owner id (UUID)"
// @Param        type      path  string  true  "POST or USER"
// @Success      204
// @Failure      404  {object}  common.Response
// @Router       /api/v1/images/{filename}/{ownerId}/{type} [delete]
func (h *Handler) DeleteImage(c *gin.Context) {
	ownerID, category, err := parseScope(c.Param("ownerId"), c.Param("type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("filename"), category, ownerID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAllImages 删除作用域内全部图片
// @Summary      Delete all images of an owner
// @Tags         images
// @Param        ownerId  path  string  true  "owner id (UUID)"
// @Param        type     path  string  true  "POST or USER"
// @Success      204
// @Failure      404  {object}  common.Response
// @Router       /api/v1/images/all/{ownerId}/{type} [delete]
func (h *Handler) DeleteAllImages(c *gin.Context) {
	ownerID, category, err := parseScope(c.Param("ownerId"), c.Param("type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.service.DeleteAll(c.Request.Context(), ownerID, category); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
