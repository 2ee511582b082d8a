package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func newTestServer(t *testing.T, secret string) (*app.Container, http.Handler) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		ServerHost:             "127.0.0.1",
		ServerPort:             8080,
		DBType:                 "sqlite",
		DBFilePath:             filepath.Join(dir, "data", "images.db"),
		DBMaxOpenConns:         1,
		StorageType:            "local",
		StorageLocalPath:       filepath.Join(dir, "uploads"),
		CacheType:              "memory",
		CacheEnableListCaching: true,
		CacheListTTL:           60,
		RateLimitApiRPS:        1000,
		RateLimitApiBurst:      1000,
		RateLimitImageRPS:      1000,
		RateLimitImageBurst:    1000,
		RateLimitExpireTime:    time.Minute,
		UploadMaxSizeMB:        1,
		UploadMaxBatchTotalMB:  5,
		UploadMaxFiles:         5,
		UploadImagesOnly:       true,
		AuthJWTSecret:          secret,
		AuthJWTIssuer:          "image-api",
	}

	container := app.NewContainer(cfg)
	require.NoError(t, container.Init())
	require.NoError(t, container.GetDatabaseFactory().AutoMigrate())
	t.Cleanup(func() { _ = container.Close() })

	srv, cleanup := StartServer(container)
	t.Cleanup(cleanup)
	assert.Equal(t, "127.0.0.1:8080", srv.Addr)
	return container, srv.Handler
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	_, h := newTestServer(t, "")

	w := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "storage": "ok", "cache": "ok"}, body.Checks)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestVersionAndMetrics(t *testing.T) {
	_, h := newTestServer(t, "")

	w := serve(h, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"`+config.Version+`"`)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "request_count")
}

func TestAPI_RequiresTokenWhenAuthEnabled(t *testing.T) {
	container, h := newTestServer(t, testSecret)
	owner := uuid.New()
	listPath := fmt.Sprintf("/api/v1/images?ownerId=%s&type=POST", owner)

	w := serve(h, httptest.NewRequest(http.MethodGet, listPath, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := container.GetJWTService().GenerateToken("post-service", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, listPath, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(h, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAPI_UploadListServeDelete(t *testing.T) {
	_, h := newTestServer(t, "")
	owner := uuid.New()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("ownerId", owner.String()))
	require.NoError(t, mw.WriteField("type", "POST"))
	for _, name := range []string{"cover.png", "cover.png"} {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(h, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var uploaded []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.Len(t, uploaded, 2)
	for _, dto := range uploaded {
		assert.Equal(t, fmt.Sprintf("http://127.0.0.1:8080/images/posts/%s/%s", owner, dto["fileName"]), dto["fileUrl"])
	}

	// 列表走缓存，删除后必须立即失效
	w = serve(h, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/images?ownerId=%s&type=POST", owner), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/images/posts/%s/%s", owner, uploaded[0]["fileName"]), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w = serve(h, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/images/%s/%s/POST", uploaded[0]["fileName"], owner), nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/images?ownerId=%s&type=POST", owner), nil))
	var listed []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, uploaded[1]["fileName"], listed[0]["fileName"])

	w = serve(h, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/images/all/%s/POST", owner), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = serve(h, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/images/all/%s/POST", owner), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
