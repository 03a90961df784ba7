package repository

import (
	"context"

	"github.com/sakif/video-guides/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateEntitlement(ctx context.Context, id string, credits int, status model.SubscriptionStatus) error
}

// AnalysisRepository reads analyses outside of a transaction and opens
// transactions for the writes that must land together.
type AnalysisRepository interface {
	GetAnalysisByID(ctx context.Context, id string) (*model.VideoAnalysis, error)
	// FindAnalysisBySourceURL returns apperror.ErrNotFound when no analysis
	// exists for the exact submitted URL.
	FindAnalysisBySourceURL(ctx context.Context, socialMediaURL string) (*model.VideoAnalysis, error)
	ListAnalysesByUser(ctx context.Context, userID string, opts ListOptions) ([]model.VideoAnalysis, error)
	CreateUserAnalysis(ctx context.Context, link *model.UserVideoAnalysis) error

	// RunInTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise; the error from fn is returned unchanged.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside RunInTx.
type Tx interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// CreateAnalysis returns apperror.ErrConflict when an analysis for the
	// same SocialMediaURL already exists.
	CreateAnalysis(ctx context.Context, analysis *model.VideoAnalysis) error
	CreateUserAnalysis(ctx context.Context, link *model.UserVideoAnalysis) error
	// DebitCredit takes one credit. It returns apperror.ErrPaymentRequired
	// instead of going below zero.
	DebitCredit(ctx context.Context, userID string) error
}
