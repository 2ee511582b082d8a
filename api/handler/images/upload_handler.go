package images

import (
	"net/http"
	"strings"

	"github.com/anoixa/image-api/api/common"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// formCategory 读取 type，缺省时读取 category
func formCategory(c *gin.Context) string {
	if v := c.PostForm("type"); v != "" {
		return v
	}
	return c.PostForm("category")
}

// UploadImages 上传图片
// @Summary      Upload images
// @Description  Stores every file under the owner's scope and returns the full scope listing
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Param        images   formData  file    true  "image files"
// @Param        ownerId  formData  string  true  "owner id (UUID)"
// @Param        type     formData  string  true  "POST or USER"
// @Success      201  {array}   ImageDTO
// @Failure      400  {object}  common.Response
// @Failure      500  {object}  common.Response
// @Router       /api/v1/images [post]
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	ownerID, category, err := parseScope(c.PostForm("ownerId"), formCategory(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	headers := formFiles(form, "images")
	if len(headers) == 0 {
		common.RespondError(c, http.StatusBadRequest, "At least one file is required under the 'images' key")
		return
	}
	if err := h.checkLimits(headers); err != nil {
		respondServiceError(c, err)
		return
	}

	files, closeAll, err := openFiles(headers)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer closeAll()

	list, err := h.service.Upload(c.Request.Context(), files, ownerID, category)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDTOs(list))
}

// UpdateImages 同步作用域内的图片
// @Summary      Reconcile images
// @Description  Deletes every image not listed in existingImages, then stores newImages
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Param        data       formData  string  true   "JSON {ownerId,type,existingImages:[{id}]}"
// @Param        newImages  formData  file    false  "new image files"
// @Success      200  {array}   ImageDTO
// @Failure      400  {object}  common.Response
// @Failure      500  {object}  common.Response
// @Router       /api/v1/images [put]
func (h *Handler) UpdateImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	raw := c.PostForm("data")
	if strings.TrimSpace(raw) == "" {
		common.RespondError(c, http.StatusBadRequest, "The 'data' field is required")
		return
	}

	var req UpdateRequest
	if err := binding.JSON.BindBody([]byte(raw), &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid 'data' field: "+err.Error())
		return
	}

	ownerID, category, err := parseScope(req.OwnerID, req.category())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	keepIDs := make([]uuid.UUID, 0, len(req.ExistingImages))
	for _, existing := range req.ExistingImages {
		id, err := uuid.Parse(existing.ID)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "invalid image id: "+existing.ID)
			return
		}
		keepIDs = append(keepIDs, id)
	}

	headers := formFiles(form, "newImages")
	if err := h.checkLimits(headers); err != nil {
		respondServiceError(c, err)
		return
	}

	files, closeAll, err := openFiles(headers)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer closeAll()

	list, err := h.service.Reconcile(c.Request.Context(), ownerID, category, keepIDs, files)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDTOs(list))
}
