// Package model defines the data structures used throughout the application.
package model

import "time"

// SubscriptionStatus mirrors the billing provider's subscription state.
// The empty value means the user never subscribed.
type SubscriptionStatus string

const (
	SubscriptionNone              SubscriptionStatus = ""
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionCancelAtPeriodEnd SubscriptionStatus = "cancel_at_period_end"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionDeleted           SubscriptionStatus = "deleted"
)

// User represents a registered user account.
//
// GitHub OAuth is the identity provider, so the external identifier is the
// GitHub user ID. Our own ID is an xid string, like every other row.
//
// Credits and SubscriptionStatus form the user's entitlement: a subscribed
// user analyses for free, everyone else spends one credit per new analysis.
// Credits is never written below zero.
type User struct {
	ID                 string             `json:"id"                 db:"id"`
	GitHubID           int64              `json:"githubId"           db:"github_id"`
	Login              string             `json:"login"              db:"login"`
	Email              string             `json:"email"              db:"email"`
	AvatarURL          string             `json:"avatarUrl"          db:"avatar_url"`
	Credits            int                `json:"credits"            db:"credits"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus" db:"subscription_status"`
	CreatedAt          time.Time          `json:"createdAt"          db:"created_at"`
	UpdatedAt          time.Time          `json:"updatedAt"          db:"updated_at"`
}

// IsSubscribed reports whether the user has unlimited use. A subscription
// that is cancelled at period end stays usable until the period is over.
func (u *User) IsSubscribed() bool {
	return u.SubscriptionStatus == SubscriptionActive ||
		u.SubscriptionStatus == SubscriptionCancelAtPeriodEnd
}

// Valid reports whether s is one of the known statuses, including none.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionNone, SubscriptionActive, SubscriptionCancelAtPeriodEnd,
		SubscriptionPastDue, SubscriptionDeleted:
		return true
	}
	return false
}
