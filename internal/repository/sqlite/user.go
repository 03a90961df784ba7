package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/model"
)

const userColumns = `id, github_id, login, email, avatar_url, credits, subscription_status, created_at, updated_at`

// Upsert inserts or updates a user based on their GitHub ID.
//
// On first login the row is created with user.Credits as the starting balance.
// On later logins only the profile fields are refreshed: credits and
// subscription status belong to billing and are never overwritten here.
// Either way, user is reloaded so the caller sees the stored entitlement.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	now := time.Now().UTC()

	if existingID != "" {
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET login = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Login,
			user.Email,
			user.AvatarURL,
			now,
			existingID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", existingID, err)
		}
	} else {
		existingID = xid.New().String()
		if user.Credits < 0 {
			user.Credits = 0
		}

		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			existingID,
			user.GitHubID,
			user.Login,
			user.Email,
			user.AvatarURL,
			user.Credits,
			string(user.SubscriptionStatus),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
		}
	}

	stored, err := getUser(ctx, db.conn, existingID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, db.conn, id)
}

// UpdateEntitlement overwrites a user's credit balance and subscription
// status. It is the hook for billing tooling; the analysis flow only ever
// debits through Tx.DebitCredit.
func (db *DB) UpdateEntitlement(ctx context.Context, id string, credits int, status model.SubscriptionStatus) error {
	if credits < 0 {
		return apperror.ValidationFailed("credits", "credits cannot be negative")
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET credits = ?, subscription_status = ?, updated_at = ? WHERE id = ?`,
		credits, string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating entitlement for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// GetUserByID reads the user inside the transaction, so the entitlement it
// returns is the one the debit will be applied to.
func (t *txStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, t.q, id)
}

// DebitCredit takes exactly one credit.
//
// The "credits > 0" guard lives in the WHERE clause, so the check and the
// decrement are a single statement. Zero rows affected means the user was
// already at zero (or does not exist) and nothing was changed.
func (t *txStore) DebitCredit(ctx context.Context, userID string) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE users SET credits = credits - 1, updated_at = ?
		 WHERE id = ? AND credits > 0`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: debiting credit for user %s: %w", userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.PaymentRequired("User has not paid or is out of credits")
	}
	return nil
}

func getUser(ctx context.Context, q querier, id string) (*model.User, error) {
	var u model.User
	var status string

	err := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Login,
		&u.Email,
		&u.AvatarURL,
		&u.Credits,
		&status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	u.SubscriptionStatus = model.SubscriptionStatus(status)
	return &u, nil
}
