package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"tennis-transform/internal/domain"
	"tennis-transform/internal/middleware"
	"tennis-transform/internal/transform"
)

type transformRequest struct {
	Image string `json:"image"`
}

type transformResponse struct {
	Success  bool                   `json:"success"`
	ID       string                 `json:"id"`
	ImageURL string                 `json:"imageUrl"`
	Analysis *domain.PersonAnalysis `json:"analysis,omitempty"`
	Action   string                 `json:"action"`
	Method   string                 `json:"method,omitempty"`
}

const msgNoImage = "No image provided"

// TennisTransform accepts {"image": "<data url>"} and answers with the
// transformed photo.
func (a *App) TennisTransform(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = a.Logger
	}

	if a.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxBodyBytes)
	}
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "Image too large", "request body exceeds the upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "Invalid request body", "expected a JSON object with an image field")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		a.error(w, http.StatusBadRequest, msgNoImage, "request body has no image field")
		return
	}

	res, err := a.Transformer.Transform(r.Context(), transform.Request{
		Image:    req.Image,
		Language: middleware.LocaleFromContext(r.Context(), ""),
	})
	if err != nil {
		status, message, details := describeError(err)
		ev := log.Warn()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Err(err).Str("category", domain.Category(err)).Int("status", status).Msg("tennis transform failed")
		a.error(w, status, message, details)
		return
	}

	w.Header().Set("X-Transform-ID", res.ID)
	a.json(w, http.StatusOK, transformResponse{
		Success:  true,
		ID:       res.ID,
		ImageURL: res.Image.DataURL(),
		Analysis: res.Analysis,
		Action:   string(res.Action),
		Method:   string(res.Method),
	})
}

// describeError maps the error taxonomy onto a status and a caller-safe body.
func describeError(err error) (int, string, string) {
	detail := domain.Detail(err)
	switch domain.Category(err) {
	case "invalid_input":
		if detail == msgNoImage {
			return http.StatusBadRequest, msgNoImage, "image payload is empty"
		}
		return http.StatusBadRequest, "Invalid image", detail
	case "pipeline_exhausted":
		return http.StatusBadGateway, "Failed to transform image", detail
	case "timeout":
		return http.StatusGatewayTimeout, "Transformation timed out", detail
	case "canceled":
		return http.StatusServiceUnavailable, "Request canceled", "client closed the request before the transformation finished"
	default:
		return http.StatusInternalServerError, "Failed to transform image", "unexpected server error"
	}
}
