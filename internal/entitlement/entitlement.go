// Package entitlement decides whether a user may spend one video analysis.
//
// TWO GUARD STAGES:
// The same rule is checked twice during a request, by name:
//
//	Preauthorize    at request entry, before any external call is made
//	AuthorizeDebit  inside the persistence transaction, on a freshly read
//	                user row, right before the credit is taken
//
// The second stage closes the gap left by the first: two concurrent requests
// from a user with one credit both pass Preauthorize, but only one of them
// can pass AuthorizeDebit and commit.
package entitlement

import (
	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/model"
)

const outOfCredits = "User has not paid or is out of credits"

// CanSpend reports whether u may spend one analysis. Subscribers have
// unlimited use; everyone else needs at least one credit.
func CanSpend(u *model.User) bool {
	if u == nil {
		return false
	}
	return u.IsSubscribed() || u.Credits > 0
}

// Preauthorize is the entry guard. It returns an Unauthorized error for a
// missing user and a PaymentRequired error when CanSpend is false.
func Preauthorize(u *model.User) error {
	if u == nil {
		return apperror.Unauthorized("valid authentication required")
	}
	if !CanSpend(u) {
		return apperror.PaymentRequired(outOfCredits)
	}
	return nil
}

// AuthorizeDebit is the commit-time guard. debit tells the caller whether a
// credit must be taken as part of the transaction.
func AuthorizeDebit(u *model.User) (debit bool, err error) {
	if u == nil {
		return false, apperror.Unauthorized("valid authentication required")
	}
	if u.IsSubscribed() {
		return false, nil
	}
	if u.Credits <= 0 {
		return false, apperror.PaymentRequired(outOfCredits)
	}
	return true, nil
}
