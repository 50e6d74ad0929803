package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/docflow/service"
	"github.com/tieubaoca/docflow/types"
)

func newUploadRouter(t *testing.T) (*gin.Engine, *service.Stages, *service.TrackingStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stages := service.NewStages(filepath.Join(t.TempDir(), "watch"))
	require.NoError(t, stages.EnsureDirs())

	tracking := service.NewTrackingStore()
	h := NewUploadHandler(stages, service.NewLoaderRegistry(), tracking, 1<<20)

	router := gin.New()
	router.POST("/upload", h.UploadDocumentHandler)
	router.GET("/upload/status/:tracking_id", h.UploadStatusHandler)
	return router, stages, tracking
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentHandler_DropsIntoIncoming(t *testing.T) {
	router, stages, tracking := newUploadRouter(t)

	body, contentType := multipartBody(t, "my report.txt", "uploaded content")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status bool                 `json:"status"`
		Data   types.UploadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	assert.NotEmpty(t, resp.Data.TrackingID)
	assert.Equal(t, "my_report.txt", resp.Data.OriginalName)

	// The stored file is named by tracking id, extension preserved.
	stored := filepath.Join(stages.Incoming, resp.Data.TrackingID+".txt")
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "uploaded content", string(data))

	rec2, ok := tracking.Get(resp.Data.TrackingID)
	require.True(t, ok)
	assert.Equal(t, types.TrackingUploaded, rec2.Status)
}

func TestUploadDocumentHandler_UnsupportedType(t *testing.T) {
	router, _, _ := newUploadRouter(t)

	body, contentType := multipartBody(t, "malware.exe", "nope")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocumentHandler_MissingFile(t *testing.T) {
	router, _, _ := newUploadRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadStatusHandler_Unknown(t *testing.T) {
	router, _, _ := newUploadRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/upload/status/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadStatusHandler_Known(t *testing.T) {
	router, _, tracking := newUploadRouter(t)
	tracking.Create("abc", "doc.pdf", "/incoming/abc.pdf")

	req := httptest.NewRequest(http.MethodGet, "/upload/status/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status bool                 `json:"status"`
		Data   types.TrackingRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc.pdf", resp.Data.Filename)
	assert.Equal(t, types.TrackingUploaded, resp.Data.Status)
}
