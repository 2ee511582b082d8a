package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anoixa/image-api/database/models"
	repoImages "github.com/anoixa/image-api/database/repo/images"
	"github.com/anoixa/image-api/internal/image"
	"github.com/anoixa/image-api/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBaseURL = "http://localhost:8080/images"

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

type upload struct {
	field   string
	name    string
	content []byte
}

func newTestRouter(t *testing.T, imagesOnly bool, limits Limits) *gin.Engine {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return newTestRouterWithStorage(t, store, imagesOnly, limits)
}

func newTestRouterWithStorage(t *testing.T, store storage.Provider, imagesOnly bool, limits Limits) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Image{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	service := image.NewService(store, repoImages.NewRepository(db), image.Options{
		BaseURL:    testBaseURL,
		ImagesOnly: imagesOnly,
	})
	h := NewHandler(service, limits)

	router := gin.New()
	api := router.Group("/api/v1/images")
	api.POST("", h.UploadImages)
	api.PUT("", h.UpdateImages)
	api.GET("", h.ListImages)
	api.DELETE("/all/:ownerId/:type", h.DeleteAllImages)
	api.DELETE("/:filename/:ownerId/:type", h.DeleteImage)
	router.GET("/images/:folder/:ownerId/:filename", h.GetImageFile)
	return router
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func uploadImages(t *testing.T, router *gin.Engine, owner uuid.UUID, category string, files ...upload) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, map[string]string{"ownerId": owner.String(), "type": category}, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", body)
	req.Header.Set("Content-Type", contentType)
	return do(router, req)
}

func listImages(t *testing.T, router *gin.Engine, owner uuid.UUID, category string) []ImageDTO {
	w := do(router, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/images?ownerId=%s&type=%s", owner, category), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list []ImageDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	return list
}

func png(name string) upload {
	return upload{field: "images", name: name, content: pngBytes}
}

func TestUploadImages(t *testing.T) {
	router := newTestRouter(t, true, Limits{})
	owner := uuid.New()

	w := uploadImages(t, router, owner, "USER", png("a.png"), png("a.png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var list []ImageDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.NotEqual(t, list[0].FileName, list[1].FileName)
	for _, dto := range list {
		assert.True(t, strings.HasSuffix(dto.FileName, "_a.png"))
		assert.Equal(t, fmt.Sprintf("%s/users/%s/%s", testBaseURL, owner, dto.FileName), dto.FileURL)
		_, err := uuid.Parse(dto.ID)
		assert.NoError(t, err)
	}
}

func TestUploadImages_CategoryAlias(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	body, contentType := multipartBody(t, map[string]string{"ownerId": owner.String(), "category": "post"}, png("a.png"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", body)
	req.Header.Set("Content-Type", contentType)
	w := do(router, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, listImages(t, router, owner, "POST"), 1)
}

func TestUploadImages_BadInput(t *testing.T) {
	router := newTestRouter(t, true, Limits{MaxFiles: 2, MaxFileSize: 1 << 10})
	owner := uuid.New()

	tests := []struct {
		name   string
		owner  string
		typ    string
		files  []upload
		status int
	}{
		{"invalid owner", "not-a-uuid", "USER", []upload{png("a.png")}, http.StatusBadRequest},
		{"invalid type", owner.String(), "ALBUM", []upload{png("a.png")}, http.StatusBadRequest},
		{"no files", owner.String(), "USER", nil, http.StatusBadRequest},
		{"too many files", owner.String(), "USER", []upload{png("a.png"), png("b.png"), png("c.png")}, http.StatusBadRequest},
		{"file too large", owner.String(), "USER", []upload{{field: "images", name: "big.png", content: bytes.Repeat([]byte{1}, 2<<10)}}, http.StatusRequestEntityTooLarge},
		{"not an image", owner.String(), "USER", []upload{{field: "images", name: "a.txt", content: []byte("hello world")}}, http.StatusBadRequest},
		{"blank file name", owner.String(), "USER", []upload{png("   ")}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, map[string]string{"ownerId": tt.owner, "type": tt.typ}, tt.files...)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/images", body)
			req.Header.Set("Content-Type", contentType)
			w := do(router, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"status":"error"`)
		})
	}

	assert.Empty(t, listImages(t, router, owner, "USER"))
}

func TestUploadImages_NotMultipart(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
}

func TestUpdateImages(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	w := uploadImages(t, router, owner, "POST", png("a.png"), png("b.png"))
	require.Equal(t, http.StatusCreated, w.Code)
	var existing []ImageDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &existing))
	require.Len(t, existing, 2)

	data, err := json.Marshal(UpdateRequest{
		OwnerID:        owner.String(),
		Type:           "POST",
		ExistingImages: []ExistingImage{{ID: existing[0].ID}},
	})
	require.NoError(t, err)

	body, contentType := multipartBody(t, map[string]string{"data": string(data)},
		upload{field: "newImages", name: "c.png", content: pngBytes})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/images", body)
	req.Header.Set("Content-Type", contentType)
	w = do(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list []ImageDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)

	names := []string{list[0].FileName, list[1].FileName}
	assert.Contains(t, names, existing[0].FileName)
	assert.NotContains(t, names, existing[1].FileName)

	// 被删除的文件不再可访问
	w = do(router, httptest.NewRequest(http.MethodGet, "/images/posts/"+owner.String()+"/"+existing[1].FileName, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateImages_KeepAllNoFiles(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	require.Equal(t, http.StatusCreated, uploadImages(t, router, owner, "USER", png("a.png")).Code)
	before := listImages(t, router, owner, "USER")

	data := fmt.Sprintf(`{"ownerId":%q,"type":"USER","existingImages":[{"id":%q}]}`, owner, before[0].ID)
	body, contentType := multipartBody(t, map[string]string{"data": data})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/images", body)
	req.Header.Set("Content-Type", contentType)
	w := do(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, before, listImages(t, router, owner, "USER"))
}

func TestUpdateImages_BadInput(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	tests := []struct {
		name string
		data string
	}{
		{"missing data", ""},
		{"invalid json", "{"},
		{"invalid owner", `{"ownerId":"x","type":"USER"}`},
		{"invalid type", fmt.Sprintf(`{"ownerId":%q,"type":"nope"}`, owner)},
		{"invalid image id", fmt.Sprintf(`{"ownerId":%q,"type":"USER","existingImages":[{"id":"bad"}]}`, owner)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{}
			if tt.data != "" {
				fields["data"] = tt.data
			}
			body, contentType := multipartBody(t, fields)
			req := httptest.NewRequest(http.MethodPut, "/api/v1/images", body)
			req.Header.Set("Content-Type", contentType)
			assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
		})
	}
}

func TestListImages_EmptyAndBadInput(t *testing.T) {
	router := newTestRouter(t, false, Limits{})

	list := listImages(t, router, uuid.New(), "USER")
	assert.NotNil(t, list)
	assert.Empty(t, list)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/images?ownerId=x&type=USER", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/images?ownerId="+uuid.NewString(), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteImage(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	require.Equal(t, http.StatusCreated, uploadImages(t, router, owner, "USER", png("a.png"), png("b.png")).Code)
	list := listImages(t, router, owner, "USER")
	require.Len(t, list, 2)

	path := fmt.Sprintf("/api/v1/images/%s/%s/USER", list[0].FileName, owner)
	w := do(router, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Len(t, listImages(t, router, owner, "USER"), 1)

	w = do(router, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), list[0].FileName)
	assert.Len(t, listImages(t, router, owner, "USER"), 1)

	w = do(router, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/images/x.png/%s/BAD", owner), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAllImages(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	require.Equal(t, http.StatusCreated, uploadImages(t, router, owner, "POST", png("a.png"), png("b.png")).Code)
	require.Equal(t, http.StatusCreated, uploadImages(t, router, owner, "USER", png("c.png")).Code)

	path := fmt.Sprintf("/api/v1/images/all/%s/POST", owner)
	assert.Equal(t, http.StatusNoContent, do(router, httptest.NewRequest(http.MethodDelete, path, nil)).Code)
	assert.Empty(t, listImages(t, router, owner, "POST"))
	assert.Len(t, listImages(t, router, owner, "USER"), 1)

	assert.Equal(t, http.StatusNotFound, do(router, httptest.NewRequest(http.MethodDelete, path, nil)).Code)
}

func TestGetImageFile(t *testing.T) {
	router := newTestRouter(t, false, Limits{})
	owner := uuid.New()

	require.Equal(t, http.StatusCreated, uploadImages(t, router, owner, "USER", png("a.png")).Code)
	list := listImages(t, router, owner, "USER")
	require.Len(t, list, 1)

	w := do(router, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(list[0].FileURL, "http://localhost:8080"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	tests := []string{
		"/images/albums/" + owner.String() + "/" + list[0].FileName,
		"/images/posts/" + owner.String() + "/" + list[0].FileName,
		"/images/users/" + owner.String() + "/missing.png",
		"/images/users/" + owner.String() + "/..",
	}
	for _, path := range tests {
		w := do(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

// brokenStorage 写入和删除始终失败
type brokenStorage struct {
	*storage.LocalStorage
}

func (s *brokenStorage) WriteBlob(ctx context.Context, path string, content io.Reader) error {
	return errors.New("disk full")
}

func (s *brokenStorage) DeleteBlob(ctx context.Context, path string) error {
	return errors.New("disk full")
}

func TestStorageFailureReturns500(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	router := newTestRouterWithStorage(t, &brokenStorage{LocalStorage: store}, false, Limits{})
	ownerID := uuid.New()
	owner := ownerID.String()

	w := uploadImages(t, router, ownerID, "POST", png("a.png"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), owner)

	// 直接放入一个文件，使删除走到存储层
	blobPath := storage.BlobPath("posts", owner, "x_a.png")
	require.NoError(t, store.CreateScope(context.Background(), storage.ScopePath("posts", owner)))
	require.NoError(t, store.WriteBlob(context.Background(), blobPath, bytes.NewReader(pngBytes)))

	w = do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/images/x_a.png/"+owner+"/POST", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "x_a.png")
}
