package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siwachprerit/Drafted/internal/middleware"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadFile(ctx context.Context, file *multipart.FileHeader, key string) (string, error) {
	args := m.Called(file.Filename, key)
	return args.String(0), args.Error(1)
}

func multipartRequest(t *testing.T, filename, contentType string, size int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{'x'}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newRouter(uploader *MockUploader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, 4)
		c.Next()
	}, NewUploadHandler(uploader).UploadImage)
	return r
}

func TestUploadImage(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadFile", "cover.png", mock.MatchedBy(func(key string) bool {
		return len(key) > len("images/4/") && key[:len("images/4/")] == "images/4/"
	})).Return("https://cdn.example.com/images/4/cover.png", nil)

	w := httptest.NewRecorder()
	newRouter(uploader).ServeHTTP(w, multipartRequest(t, "cover.png", "image/png", 128))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imageUrl":"https://cdn.example.com/images/4/cover.png"`)
	uploader.AssertExpectations(t)
}

func TestUploadRejectsInvalidFiles(t *testing.T) {
	uploader := new(MockUploader)
	r := newRouter(uploader)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "script.exe", "application/octet-stream", 16))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "huge.jpg", "image/jpeg", MaxImageSize+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	uploader.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything)
}

func TestUploadStorageFailure(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadFile", "a.gif", mock.Anything).Return("", stderrors.New("bucket unreachable"))

	w := httptest.NewRecorder()
	newRouter(uploader).ServeHTTP(w, multipartRequest(t, "a.gif", "image/gif", 8))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "bucket unreachable")
}
