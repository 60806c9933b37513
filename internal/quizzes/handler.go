package quizzes

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"showdown-backend/internal/shared/server/middleware"
	"showdown-backend/internal/shared/server/respond"
	"showdown-backend/internal/shared/telemetry"
)

const maxQuizBodySize = 5 << 20 // 5MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches quiz routes to an authenticated router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quiz", h.get)
	rg.PUT("/quiz", h.save)
}

type quizResponse struct {
	Data      Document  `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type saveRequest struct {
	Data json.RawMessage `json:"data"`
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	quiz, err := h.Svc.Get(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "No quiz data found", nil)
		default:
			logFailure(c, "quiz.load_failed", userID, err)
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to load quiz", nil)
		}
		return
	}

	respond.OK(c, quizResponse{Data: quiz.Data, UpdatedAt: quiz.UpdatedAt})
}

func (h *Handler) save(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxQuizBodySize)

	var req saveRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Quiz data is required", nil)
		return
	}
	doc, err := DecodeDocument(string(req.Data))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Quiz data is required", nil)
		return
	}

	if _, err := h.Svc.Save(c.Request.Context(), userID, doc); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Quiz data is invalid", nil)
		default:
			logFailure(c, "quiz.save_failed", userID, err)
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to save quiz", nil)
		}
		return
	}

	respond.NoContent(c)
}

func logFailure(c *gin.Context, msg, userID string, err error) {
	telemetry.Error(msg, map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"user_id":    userID,
		"error":      err,
	})
}
