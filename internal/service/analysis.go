// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces entitlement, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces and a processor.Processor, never the
// concrete sqlite or HTTP types. Tests pass in-memory fakes (see
// analysis_test.go) and main.go decides what runs in production.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/entitlement"
	"github.com/sakif/video-guides/internal/model"
	"github.com/sakif/video-guides/internal/platform"
	"github.com/sakif/video-guides/internal/processor"
	"github.com/sakif/video-guides/internal/prompt"
	"github.com/sakif/video-guides/internal/repository"
)

// History listing bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// GenerateInput is the raw request to analyse a video, as received from
// the client. Platform may be empty; it is then taken from the URL.
type GenerateInput struct {
	VideoURL string
	Platform string
	Type     string
}

// AnalysisService turns social-media video URLs into markdown guides.
//
// REQUEST STATE MACHINE (Generate):
//
//	AuthCheck → Validate → Preauthorize → CacheLookup ─hit──────────────→ Link → return
//	                                          │miss
//	                                          ↓
//	                                       Invoke processor
//	                                          ↓
//	                                 ┌── one transaction ──────────────┐
//	                                 │ Persist analysis + link          │
//	                                 │ AuthorizeDebit on fresh user row │
//	                                 │ Debit one credit (unsubscribed)  │
//	                                 └──────────────────────────────────┘
//	                                          ↓
//	                                       return (side data from the processor)
//
// Every stage is terminal on failure; nothing is retried and nothing is
// written before the transaction.
type AnalysisService struct {
	users    repository.UserRepository
	analyses repository.AnalysisRepository
	proc     processor.Processor
	flight   singleflight.Group
	logger   *slog.Logger
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	users repository.UserRepository,
	analyses repository.AnalysisRepository,
	proc processor.Processor,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		users:    users,
		analyses: analyses,
		proc:     proc,
		logger:   logger,
	}
}

// analysisRequest is GenerateInput after validation.
type analysisRequest struct {
	videoURL string
	platform model.Platform
	category model.Category
}

// Generate runs the full analysis flow for userID.
//
// CACHE POLICY:
// A hit on the exact submitted URL returns the stored analysis, records a
// UserVideoAnalysis link for this user (their history stays complete) and
// bills nothing. The processor is not called.
//
// DUPLICATE RACE:
// Two concurrent misses for the same URL share one processor call when they
// land on this process. Across processes both may call out; the UNIQUE
// constraint then rejects the second insert and the loser is served the
// winner's row as a cache hit.
func (s *AnalysisService) Generate(ctx context.Context, userID string, in GenerateInput) (*model.VideoAnalysis, error) {
	// === AUTH CHECK ===
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("analysis requested by unknown user", slog.String("userID", userID))
			return nil, apperror.Unauthorized("valid authentication required")
		}
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}

	// === INPUT VALIDATION ===
	req, err := validateGenerateInput(in)
	if err != nil {
		return nil, err
	}

	// === PRE-AUTHORIZATION ===
	if err := entitlement.Preauthorize(user); err != nil {
		s.logger.Info("analysis refused: no entitlement",
			slog.String("userID", user.ID),
			slog.Int("credits", user.Credits),
			slog.String("subscription", string(user.SubscriptionStatus)),
		)
		return nil, err
	}

	s.logger.Info("starting video analysis",
		slog.String("userID", user.ID),
		slog.String("videoUrl", req.videoURL),
		slog.String("platform", string(req.platform)),
		slog.String("type", string(req.category)),
	)

	// === CACHE LOOKUP ===
	existing, err := s.analyses.FindAnalysisBySourceURL(ctx, req.videoURL)
	if err == nil {
		return s.serveCached(ctx, user.ID, existing)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up cached analysis: %w", err)
	}

	// === INVOKE PROCESSOR ===
	result, err := s.analyze(ctx, req)
	if err != nil {
		s.logger.Error("video processing failed",
			slog.String("videoUrl", req.videoURL),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ProcessingFailed(err)
	}

	s.logger.Info("processor returned analysis",
		slog.String("videoUrl", req.videoURL),
		slog.String("mimeType", result.Metadata.MimeType),
		slog.Bool("processorCached", result.Metadata.Cached),
		slog.String("processorTimestamp", result.Metadata.Timestamp),
		slog.Int("ingredients", len(result.Ingredients)),
	)

	analysis, err := newAnalysis(user.ID, req, result)
	if err != nil {
		return nil, err
	}

	// === PERSIST + FINAL AUTHORIZATION + BILL (one transaction) ===
	var debited bool
	err = s.analyses.RunInTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateAnalysis(ctx, analysis); err != nil {
			return err
		}
		if err := tx.CreateUserAnalysis(ctx, &model.UserVideoAnalysis{
			UserID:          user.ID,
			VideoAnalysisID: analysis.ID,
		}); err != nil {
			return err
		}

		fresh, err := tx.GetUserByID(ctx, user.ID)
		if err != nil {
			return err
		}
		debit, err := entitlement.AuthorizeDebit(fresh)
		if err != nil {
			return err
		}
		if debit {
			if err := tx.DebitCredit(ctx, user.ID); err != nil {
				return err
			}
		}
		debited = debit
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("analysis created concurrently, serving winner",
				slog.String("videoUrl", req.videoURL))
			winner, findErr := s.analyses.FindAnalysisBySourceURL(ctx, req.videoURL)
			if findErr != nil {
				return nil, fmt.Errorf("re-reading concurrently created analysis: %w", findErr)
			}
			return s.serveCached(ctx, user.ID, winner)
		}
		if errors.Is(err, apperror.ErrPaymentRequired) {
			s.logger.Info("analysis refused at commit: no entitlement", slog.String("userID", user.ID))
			return nil, err
		}
		s.logger.Error("failed to save analysis",
			slog.String("videoUrl", req.videoURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	if len(result.Ingredients) > 0 {
		analysis.CustomJSONData = result.Ingredients
	}

	s.logger.Info("video analysis completed",
		slog.String("id", analysis.ID),
		slog.String("userID", user.ID),
		slog.Bool("debited", debited),
	)

	return analysis, nil
}

// GetByID returns a stored analysis with its side data decoded.
// A blank id is a validation error (400), an unknown id is not found (404).
func (s *AnalysisService) GetByID(ctx context.Context, id string) (*model.VideoAnalysis, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.logger.Warn("video analysis requested without an id")
		return nil, apperror.ValidationFailed("id", "video analysis ID is required")
	}

	analysis, err := s.analyses.GetAnalysisByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("video analysis not found", slog.String("id", id))
		}
		return nil, err
	}

	s.decodeCustomJSON(analysis)
	return analysis, nil
}

// ListForUser returns the analyses userID has requested, newest first.
func (s *AnalysisService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.VideoAnalysis, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	analyses, err := s.analyses.ListAnalysesByUser(ctx, userID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list analyses", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing analyses: %w", err)
	}

	for i := range analyses {
		s.decodeCustomJSON(&analyses[i])
	}
	return analyses, nil
}

// analyze calls the processor once per URL and category at a time. Concurrent
// callers asking for the same pair wait for and share the in-flight result; a
// different category gets its own call, since the prompt differs. The call is detached
// from the caller's cancellation: a shared request must not die because the
// first client went away.
func (s *AnalysisService) analyze(ctx context.Context, req analysisRequest) (*processor.Result, error) {
	v, err, shared := s.flight.Do(flightKey(req), func() (any, error) {
		return s.proc.Analyze(context.WithoutCancel(ctx), processor.Request{
			VideoURL: req.videoURL,
			Prompt:   prompt.For(req.category),
			Type:     req.category,
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("shared in-flight processor call", slog.String("videoUrl", req.videoURL))
	}
	return v.(*processor.Result), nil
}

func flightKey(req analysisRequest) string {
	return req.videoURL + "\x00" + string(req.category)
}

// serveCached records the user's link to an existing analysis and returns it.
func (s *AnalysisService) serveCached(ctx context.Context, userID string, existing *model.VideoAnalysis) (*model.VideoAnalysis, error) {
	if err := s.analyses.CreateUserAnalysis(ctx, &model.UserVideoAnalysis{
		UserID:          userID,
		VideoAnalysisID: existing.ID,
	}); err != nil {
		return nil, fmt.Errorf("linking cached analysis: %w", err)
	}

	s.logger.Info("served cached analysis",
		slog.String("id", existing.ID),
		slog.String("userID", userID),
	)

	s.decodeCustomJSON(existing)
	return existing, nil
}

// decodeCustomJSON fills CustomJSONData from the stored string. Corrupt data
// is logged and left out rather than failing the whole read.
func (s *AnalysisService) decodeCustomJSON(a *model.VideoAnalysis) {
	if a.CustomJSONRaw == "" {
		return
	}
	var data any
	if err := json.Unmarshal([]byte(a.CustomJSONRaw), &data); err != nil {
		s.logger.Warn("stored custom JSON is not valid",
			slog.String("id", a.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	a.CustomJSONData = data
}

func validateGenerateInput(in GenerateInput) (analysisRequest, error) {
	detected := platform.Detect(in.VideoURL)
	if !detected.Valid {
		return analysisRequest{}, apperror.ValidationFailed("videoUrl", detected.Error)
	}

	if declared := model.Platform(strings.ToLower(strings.TrimSpace(in.Platform))); declared != "" {
		if !declared.Valid() {
			return analysisRequest{}, apperror.ValidationFailed("platform",
				"platform must be one of instagram, facebook, youtube, tiktok")
		}
		if declared != detected.Platform {
			return analysisRequest{}, apperror.ValidationFailed("platform",
				fmt.Sprintf("URL belongs to %s, not %s", detected.Platform, declared))
		}
	}

	category, ok := model.ParseCategory(in.Type)
	if !ok {
		return analysisRequest{}, apperror.ValidationFailed("type",
			"type must be one of cooking, face-masks, diy")
	}

	return analysisRequest{
		videoURL: strings.TrimSpace(in.VideoURL),
		platform: detected.Platform,
		category: category,
	}, nil
}

func newAnalysis(userID string, req analysisRequest, result *processor.Result) (*model.VideoAnalysis, error) {
	a := &model.VideoAnalysis{
		SocialMediaURL: req.videoURL,
		VideoURL:       result.Metadata.VideoURL,
		Platform:       req.platform,
		Type:           req.category,
		Title:          result.Title,
		Output:         result.Output,
		ThumbnailURL:   result.ThumbnailURL,
		HasThumbnail:   result.Metadata.HasThumbnail,
		MimeType:       result.Metadata.MimeType,
		CreatedBy:      userID,
	}

	if len(result.Ingredients) > 0 {
		raw, err := json.Marshal(result.Ingredients)
		if err != nil {
			return nil, fmt.Errorf("encoding ingredients: %w", err)
		}
		a.CustomJSONRaw = string(raw)
	}
	return a, nil
}
