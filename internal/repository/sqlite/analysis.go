package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/model"
	"github.com/sakif/video-guides/internal/repository"
)

const analysisColumns = `id, social_media_url, video_url, platform, type, title, output,
	thumbnail_url, has_thumbnail, mime_type, custom_json_data, created_by, created_at`

// GetAnalysisByID retrieves a single analysis by its ID.
// Returns apperror.ErrNotFound if it doesn't exist.
func (db *DB) GetAnalysisByID(ctx context.Context, id string) (*model.VideoAnalysis, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM video_analyses WHERE id = ?`, id)

	a, err := scanAnalysis(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("video analysis", id)
		}
		return nil, fmt.Errorf("sqlite: getting video analysis %s: %w", id, err)
	}
	return a, nil
}

// FindAnalysisBySourceURL looks up the cached analysis for an exact
// submitted URL. No normalisation is applied: "https://youtu.be/x" and
// "https://youtu.be/x/" are different keys.
func (db *DB) FindAnalysisBySourceURL(ctx context.Context, socialMediaURL string) (*model.VideoAnalysis, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM video_analyses WHERE social_media_url = ?`, socialMediaURL)

	a, err := scanAnalysis(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("video analysis", socialMediaURL)
		}
		return nil, fmt.Errorf("sqlite: finding video analysis by url: %w", err)
	}
	return a, nil
}

// ListAnalysesByUser returns the analyses a user has requested, most
// recently requested first. An analysis requested several times appears once.
func (db *DB) ListAnalysesByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.VideoAnalysis, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.social_media_url, a.video_url, a.platform, a.type, a.title, a.output,
		        a.thumbnail_url, a.has_thumbnail, a.mime_type, a.custom_json_data, a.created_by, a.created_at
		 FROM user_video_analyses l
		 JOIN video_analyses a ON a.id = l.video_analysis_id
		 WHERE l.user_id = ?
		 GROUP BY a.id
		 ORDER BY MAX(l.created_at) DESC, a.id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing analyses for user %s: %w", userID, err)
	}
	defer rows.Close()

	analyses := make([]model.VideoAnalysis, 0, limit)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning analysis row: %w", err)
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating analyses: %w", err)
	}

	return analyses, nil
}

// CreateUserAnalysis records a link outside of a transaction. Used on the
// cache-hit path, where the link is the only write.
func (db *DB) CreateUserAnalysis(ctx context.Context, link *model.UserVideoAnalysis) error {
	return insertUserAnalysis(ctx, db.conn, link)
}

// CreateAnalysis inserts a new analysis, filling in ID and CreatedAt.
// A duplicate social_media_url returns apperror.ErrConflict.
func (t *txStore) CreateAnalysis(ctx context.Context, a *model.VideoAnalysis) error {
	a.ID = xid.New().String()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	var customJSON sql.NullString
	if a.CustomJSONRaw != "" {
		customJSON = sql.NullString{String: a.CustomJSONRaw, Valid: true}
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO video_analyses (`+analysisColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.SocialMediaURL,
		a.VideoURL,
		string(a.Platform),
		string(a.Type),
		a.Title,
		a.Output,
		a.ThumbnailURL,
		a.HasThumbnail,
		a.MimeType,
		customJSON,
		a.CreatedBy,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("video analysis", a.SocialMediaURL)
		}
		return fmt.Errorf("sqlite: creating video analysis: %w", err)
	}
	return nil
}

func (t *txStore) CreateUserAnalysis(ctx context.Context, link *model.UserVideoAnalysis) error {
	return insertUserAnalysis(ctx, t.q, link)
}

func insertUserAnalysis(ctx context.Context, q querier, link *model.UserVideoAnalysis) error {
	link.ID = xid.New().String()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO user_video_analyses (id, user_id, video_analysis_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		link.ID,
		link.UserID,
		link.VideoAnalysisID,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: linking user %s to analysis %s: %w", link.UserID, link.VideoAnalysisID, err)
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*model.VideoAnalysis, error) {
	var a model.VideoAnalysis
	var platform, category string
	var customJSON sql.NullString

	err := s.Scan(
		&a.ID,
		&a.SocialMediaURL,
		&a.VideoURL,
		&platform,
		&category,
		&a.Title,
		&a.Output,
		&a.ThumbnailURL,
		&a.HasThumbnail,
		&a.MimeType,
		&customJSON,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Platform = model.Platform(platform)
	a.Type = model.Category(category)
	a.CustomJSONRaw = customJSON.String
	return &a, nil
}
