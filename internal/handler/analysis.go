package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/auth"
	"github.com/sakif/video-guides/internal/model"
	"github.com/sakif/video-guides/internal/platform"
	"github.com/sakif/video-guides/internal/service"
)

// AnalysisService is what AnalysisHandler needs from the service layer.
// *service.AnalysisService implements it; tests pass a fake.
type AnalysisService interface {
	Generate(ctx context.Context, userID string, in service.GenerateInput) (*model.VideoAnalysis, error)
	GetByID(ctx context.Context, id string) (*model.VideoAnalysis, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.VideoAnalysis, error)
}

// maxRequestBody caps POST bodies. A request is three short strings.
const maxRequestBody = 16 << 10

// generateRequest is the POST /api/analyses body.
//
// The tags check shape only (present, bounded, URL-like). Which site the URL
// belongs to, and whether "type" is a known category, is decided by the
// service so every caller gets the same rules.
type generateRequest struct {
	VideoURL string `json:"videoUrl" validate:"required,max=2048,url"`
	Platform string `json:"platform" validate:"omitempty,max=32"`
	Type     string `json:"type" validate:"required,max=32"`
}

// AnalysisHandler serves the video analysis API.
type AnalysisHandler struct {
	svc      AnalysisService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc AnalysisService, logger *slog.Logger) *AnalysisHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names ("videoUrl"), not Go names ("VideoURL")
	v.RegisterTagNameFunc(jsonFieldName)

	return &AnalysisHandler{
		svc:      svc,
		validate: v,
		logger:   logger,
	}
}

// HandleGenerate analyses a video for the logged-in user.
//
// HTTP: POST /api/analyses
// Auth: required
// Body: {"videoUrl": "...", "platform": "youtube", "type": "cooking"}
//
// 200 with the analysis (new or cached), 400 bad input, 401 no session,
// 402 no credits and no subscription, 502 processor failure.
func (h *AnalysisHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("invalid analysis request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return
	}

	req.VideoURL = strings.TrimSpace(req.VideoURL)
	req.Platform = strings.TrimSpace(req.Platform)
	req.Type = strings.TrimSpace(req.Type)

	if err := h.validate.Struct(req); err != nil {
		writeError(w, translateValidation(err))
		return
	}

	analysis, err := h.svc.Generate(r.Context(), userID, service.GenerateInput{
		VideoURL: req.VideoURL,
		Platform: req.Platform,
		Type:     req.Type,
	})
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("video analysis failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// HandleGetByID returns a stored analysis.
//
// HTTP: GET /api/analyses/{id}
func (h *AnalysisHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to read analysis", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// HandleList returns the caller's analysis history, newest first.
//
// HTTP: GET /api/analyses?limit=20&offset=0
func (h *AnalysisHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, apperror.ValidationFailed("limit", "limit must be a number"))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, apperror.ValidationFailed("offset", "offset must be a number"))
		return
	}

	analyses, err := h.svc.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to list analyses", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyses)
}

// HandleValidateURL runs the platform check the form does as the user types.
//
// HTTP: GET /api/validate-url?url=...
// Auth: optional
// Always 200; the verdict is in the body.
func (h *AnalysisHandler) HandleValidateURL(w http.ResponseWriter, r *http.Request) {
	result := platform.Detect(r.URL.Query().Get("url"))

	userID, _ := auth.UserIDFromContext(r.Context())
	h.logger.Debug("url checked",
		slog.String("userID", userID),
		slog.Bool("valid", result.Valid),
		slog.String("platform", string(result.Platform)),
	)

	writeJSON(w, http.StatusOK, result)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// isClientError reports errors caused by the request rather than the server.
// Those are already logged by the service at a lower level.
func isClientError(err error) bool {
	for _, sentinel := range []error{
		apperror.ErrValidation,
		apperror.ErrUnauthorized,
		apperror.ErrPaymentRequired,
		apperror.ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
