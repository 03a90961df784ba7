// Command grant sets a user's credit balance and subscription status.
//
// Billing runs outside this service, so operators use this to top up credits
// or mirror a subscription change by hand:
//
//	grant -user cr1abc... -credits 10
//	grant -user cr1abc... -status active
//
// DB_PATH (or .env) selects the database, the same as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sakif/video-guides/internal/config"
	"github.com/sakif/video-guides/internal/model"
	sqliteRepo "github.com/sakif/video-guides/internal/repository/sqlite"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "grant:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	fs.SetOutput(out)
	dbPath := fs.String("db", cfg.DBPath, "SQLite database path")
	userID := fs.String("user", "", "user id (required)")
	credits := fs.Int("credits", -1, "new credit balance; unchanged when omitted")
	status := fs.String("status", "-", `subscription status: "", active, cancel_at_period_end, past_due, deleted; unchanged when omitted`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == "" {
		return errors.New("-user is required")
	}
	if *credits < 0 && *status == "-" {
		return errors.New("nothing to change: pass -credits and/or -status")
	}

	db, err := sqliteRepo.New(*dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	user, err := db.GetUserByID(ctx, *userID)
	if err != nil {
		return err
	}

	newCredits := user.Credits
	if *credits >= 0 {
		newCredits = *credits
	}
	newStatus := user.SubscriptionStatus
	if *status != "-" {
		newStatus = model.SubscriptionStatus(*status)
		if !newStatus.Valid() {
			return fmt.Errorf("unknown subscription status %q", *status)
		}
	}

	if err := db.UpdateEntitlement(ctx, user.ID, newCredits, newStatus); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s): credits %d -> %d, status %q -> %q\n",
		user.Login, user.ID, user.Credits, newCredits, user.SubscriptionStatus, newStatus)
	return nil
}
