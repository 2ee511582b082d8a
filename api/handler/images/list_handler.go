package images

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListImages 列出作用域内的图片
// @Summary      List images
// @Tags         images
// @Produce      json
// @Param        ownerId  query  string  true  "owner id (UUID)"
// @Param        type     query  string  true  "POST or USER"
// @Success      200  {array}   ImageDTO
// @Failure      400  {object}  common.Response
// @Router       /api/v1/images [get]
func (h *Handler) ListImages(c *gin.Context) {
	category := c.Query("type")
	if category == "" {
		category = c.Query("category")
	}

	ownerID, cat, err := parseScope(c.Query("ownerId"), category)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	list, err := h.service.List(c.Request.Context(), ownerID, cat)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDTOs(list))
}
