package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/auth"
	"github.com/sakif/video-guides/internal/model"
	"github.com/sakif/video-guides/internal/repository"
)

// AuthService handles the authentication business logic.
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT)
//
// DEPENDENCIES (injected via NewAuthService):
//   - users          repository.UserRepository → read/write user records
//   - tokens         *auth.TokenService        → generate/validate JWTs
//   - defaultCredits int                       → balance granted on first login
//   - logger         *slog.Logger
type AuthService struct {
	users          repository.UserRepository
	tokens         *auth.TokenService
	defaultCredits int
	logger         *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	defaultCredits int,
	logger *slog.Logger,
) *AuthService {
	if defaultCredits < 0 {
		defaultCredits = 0
	}
	return &AuthService{
		users:          users,
		tokens:         tokens,
		defaultCredits: defaultCredits,
		logger:         logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
//  1. Upsert the user (create on first login, refresh the profile afterwards)
//  2. Generate a JWT for the user's internal ID
//
// STARTING CREDITS:
// The defaultCredits grant is passed on every call, but the repository only
// applies it when the row is created. Logging in again never tops up a
// balance; credits only change through a debit or UpdateEntitlement.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
		Credits:   s.defaultCredits,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
		slog.Int("credits", user.Credits),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}

// GetUserByID returns the user for the given internal ID.
// Used by /api/me, which shows the current credit balance.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// ValidateToken validates a JWT string and returns the userID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// SessionMaxAge is the token lifetime in seconds, for the cookie's MaxAge.
func (s *AuthService) SessionMaxAge() int {
	return int(s.tokens.TTL().Seconds())
}
