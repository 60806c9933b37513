package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(&r.RouterGroup)
	return r
}

func multipartBody(t *testing.T, field, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="pic.bin"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func postUpload(r *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload_image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestUploadImageSuccess(t *testing.T) {
	store := newRecordingStore()
	r := newUploadRouter(&Service{Store: store})

	body, ct := multipartBody(t, "file", "image/png", []byte("png-bytes"))
	resp := postUpload(r, body, ct)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "https://cdn.example.com/"+payload.Key, payload.URL)
	assert.Equal(t, "png-bytes", string(store.bodies[payload.Key]))
	require.Len(t, store.puts, 1)
	assert.Equal(t, "image/png", store.puts[0].ContentType)
}

func TestUploadImageAcceptsLooseImageParameters(t *testing.T) {
	store := newRecordingStore()
	r := newUploadRouter(&Service{Store: store})

	body, ct := multipartBody(t, "file", "image/png; name", []byte("png-bytes"))
	resp := postUpload(r, body, ct)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, store.putCount())
}

func TestUploadImageValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		ct    string
		data  []byte
	}{
		{name: "text file", field: "file", ct: "text/plain", data: []byte("hello")},
		{name: "missing file", field: "", ct: "", data: nil},
		{name: "wrong field", field: "image", ct: "image/png", data: []byte("x")},
		{name: "empty image", field: "file", ct: "image/png", data: nil},
		{name: "too large", field: "file", ct: "image/png", data: bytes.Repeat([]byte("x"), 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newRecordingStore()
			r := newUploadRouter(&Service{Store: store, MaxBytes: 16})

			body, ct := multipartBody(t, tt.field, tt.ct, tt.data)
			resp := postUpload(r, body, ct)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Equal(t, 0, store.putCount())
		})
	}
}

func TestUploadImageStorageFailure(t *testing.T) {
	store := newRecordingStore()
	store.putErr = errors.New("s3: access denied for key quiz_images/x")
	r := newUploadRouter(&Service{Store: store})

	body, ct := multipartBody(t, "file", "image/jpeg", []byte("jpeg"))
	resp := postUpload(r, body, ct)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "access denied")
}
