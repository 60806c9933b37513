package assets

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"showdown-backend/internal/shared/server/middleware"
	"showdown-backend/internal/shared/server/respond"
	"showdown-backend/internal/shared/telemetry"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the upload route. Extra handlers run before the upload.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, before ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, before...), h.upload)
	rg.POST("/upload_image", handlers...)
}

type uploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes()+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", h.tooLargeMessage(), nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	asset, err := h.Svc.Ingest(c.Request.Context(), fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusBadRequest, "validation_error", h.tooLargeMessage(), nil)
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "validation_error", "File must be an image", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid image upload", nil)
		default:
			telemetry.Error("asset.ingest_failed", map[string]any{
				"request_id":   middleware.RequestIDFromContext(c),
				"content_type": fileHeader.Header.Get("Content-Type"),
				"size_bytes":   fileHeader.Size,
				"error":        err,
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to upload image", nil)
		}
		return
	}

	c.Set("assetKey", asset.Key)
	respond.OK(c, uploadResponse{URL: asset.URL, Key: asset.Key})
}

func (h *Handler) maxBytes() int64 {
	if h.Svc.MaxBytes > 0 {
		return h.Svc.MaxBytes
	}
	return DefaultMaxBytes
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds the %dMB limit", h.maxBytes()>>20)
}
