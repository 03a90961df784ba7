package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/video-guides/internal/model"
	sqliteRepo "github.com/sakif/video-guides/internal/repository/sqlite"
)

func seed(t *testing.T) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grant.db")
	db, err := sqliteRepo.New(path)
	require.NoError(t, err)
	defer db.Close()

	user := &model.User{GitHubID: 1, Login: "alice", Credits: 1}
	require.NoError(t, db.Upsert(context.Background(), user))
	return path, user.ID
}

func load(t *testing.T, path, id string) *model.User {
	t.Helper()
	db, err := sqliteRepo.New(path)
	require.NoError(t, err)
	defer db.Close()
	u, err := db.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestRun(t *testing.T) {
	t.Run("credits only", func(t *testing.T) {
		path, id := seed(t)
		var out bytes.Buffer

		err := run(context.Background(), []string{"-db", path, "-user", id, "-credits", "10"}, &out)
		require.NoError(t, err)

		u := load(t, path, id)
		assert.Equal(t, 10, u.Credits)
		assert.Equal(t, model.SubscriptionNone, u.SubscriptionStatus)
		assert.Contains(t, out.String(), "credits 1 -> 10")
	})

	t.Run("status only keeps credits", func(t *testing.T) {
		path, id := seed(t)

		err := run(context.Background(), []string{"-db", path, "-user", id, "-status", "active"}, &bytes.Buffer{})
		require.NoError(t, err)

		u := load(t, path, id)
		assert.Equal(t, 1, u.Credits)
		assert.True(t, u.IsSubscribed())
	})

	t.Run("clear subscription", func(t *testing.T) {
		path, id := seed(t)
		require.NoError(t, run(context.Background(), []string{"-db", path, "-user", id, "-status", "active"}, &bytes.Buffer{}))

		require.NoError(t, run(context.Background(), []string{"-db", path, "-user", id, "-status", ""}, &bytes.Buffer{}))

		assert.False(t, load(t, path, id).IsSubscribed())
	})
}

func TestRun_Errors(t *testing.T) {
	path, id := seed(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing user", []string{"-db", path, "-credits", "1"}},
		{"nothing to change", []string{"-db", path, "-user", id}},
		{"unknown status", []string{"-db", path, "-user", id, "-status", "trialing"}},
		{"unknown user", []string{"-db", path, "-user", "nobody", "-credits", "1"}},
		{"bad flag", []string{"-db", path, "-user", id, "-credits", "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}

	assert.Equal(t, 1, load(t, path, id).Credits, "failed runs must not change the user")
}
