package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts-service/httperr"
	"contacts-service/models"
	"contacts-service/store"
)

const usersSchema = `
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    subscription TEXT NOT NULL DEFAULT 'starter',
    avatar_url TEXT NOT NULL DEFAULT '',
    token TEXT,
    verified INTEGER NOT NULL DEFAULT 0,
    verification_token TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
`

func newTestManager(t *testing.T, ttl time.Duration) (*SessionManager, *store.UserStore) {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// :memory: databases are per-connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(usersSchema)
	require.NoError(t, err)

	users := store.NewUserStore(db)
	return NewSessionManager(users, "test-secret", ttl), users
}

func registerUser(t *testing.T, users *store.UserStore) *models.User {
	t.Helper()

	user := &models.User{
		Name:         "Ivan",
		Email:        "ivan@mail.com",
		Password:     "$2a$10$hash",
		Subscription: models.SubscriptionStarter,
		Verified:     true,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestSessionManager_IssueAndResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, users := newTestManager(t, time.Hour)
	user := registerUser(t, users)

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, user.Email, resolved.Email)
}

func TestSessionManager_ResolveReflectsStoreState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, users := newTestManager(t, time.Hour)
	user := registerUser(t, users)

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	// The claims snapshot the login-time subscription, but Resolve returns
	// the current record.
	require.NoError(t, users.SetSubscription(ctx, user.ID, models.SubscriptionBusiness))

	resolved, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionBusiness, resolved.Subscription)
}

func TestSessionManager_RevokeStopsResolution(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, users := newTestManager(t, time.Hour)
	user := registerUser(t, users)

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(ctx, user))

	_, err = sessions.Resolve(ctx, token)
	assertUnauthorized(t, err)
}

func TestSessionManager_NewSessionInvalidatesOld(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, users := newTestManager(t, time.Hour)
	user := registerUser(t, users)

	first, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	// jwt exp has second precision; make sure the two tokens differ.
	time.Sleep(1100 * time.Millisecond)

	second, err := sessions.Issue(ctx, user)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// The old token still verifies signature-wise but no longer matches
	// the stored session.
	_, err = sessions.Resolve(ctx, first)
	assertUnauthorized(t, err)

	_, err = sessions.Resolve(ctx, second)
	require.NoError(t, err)
}

func TestSessionManager_ResolveRejectsGarbage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _ := newTestManager(t, time.Hour)

	_, err := sessions.Resolve(ctx, "not.a.token")
	assertUnauthorized(t, err)
}

func TestSessionManager_ResolveRejectsExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, users := newTestManager(t, -1*time.Second)
	user := registerUser(t, users)

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	_, err = sessions.Resolve(ctx, token)
	assertUnauthorized(t, err)
}

func TestSessionManager_ResolveRejectsTamperedSignature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, users := newTestManager(t, time.Hour)
	user := registerUser(t, users)

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	_, err = sessions.Resolve(ctx, token+"x")
	assertUnauthorized(t, err)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	var httpErr *httperr.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 401, httpErr.Status)
}
