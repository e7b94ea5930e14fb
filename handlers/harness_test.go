package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	gocache "github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"

	"contacts-service/auth"
	"contacts-service/avatar"
	"contacts-service/config"
	"contacts-service/store"
)

const testSchema = `
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

CREATE TABLE contacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL UNIQUE,
    favorite INTEGER NOT NULL DEFAULT 0,
    owner_id TEXT NOT NULL REFERENCES users(id),
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
`

var loggerOnce sync.Once

// fakeSender records outbound mail instead of delivering it.
type fakeSender struct {
	mu    sync.Mutex
	sends []string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, htmlContent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, to)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

type testApp struct {
	router *mux.Router
	users  *store.UserStore
	mail   *fakeSender
}

// newTestApp wires the full handler stack against an in-memory database
// and routes mirroring server.StartServer.
func newTestApp(t *testing.T, verificationEnabled bool) *testApp {
	t.Helper()

	loggerOnce.Do(func() {
		logger.Init(logger.LoggerConfig{
			CallerKey:  "file",
			TimeKey:    "timestamp",
			CallerSkip: 1,
		})
	})

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// :memory: databases are per-connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	memCache, err := gocache.New(gocache.Config{Type: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { memCache.Close() })

	cfg := &config.Config{
		JWTSecret:           "test-secret",
		TokenTTL:            time.Hour,
		VerificationEnabled: verificationEnabled,
		BaseURL:             "http://localhost:8080",
	}

	users := store.NewUserStore(db)
	contacts := store.NewContactStore(db)
	sessions := auth.NewSessionManager(users, cfg.JWTSecret, cfg.TokenTTL)
	mail := &fakeSender{}
	avatars := avatar.NewProcessor(t.TempDir(), 250)

	authHandler := NewAuthHandler(users, sessions, mail, avatars, cfg)
	contactHandler := NewContactHandler(contacts, memCache)

	wrap := func(h httpserver.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h(r.Context(), w, r)
		}
	}

	router := mux.NewRouter()
	router.HandleFunc("/users/register", wrap(authHandler.Register)).Methods("POST")
	router.HandleFunc("/users/verify/{verificationToken}", wrap(authHandler.Verify)).Methods("GET")
	router.HandleFunc("/users/verify", wrap(authHandler.ResendVerification)).Methods("POST")
	router.HandleFunc("/users/login", wrap(authHandler.Login)).Methods("POST")
	router.HandleFunc("/users/current", wrap(RequireAuth(sessions, authHandler.Current))).Methods("GET")
	router.HandleFunc("/users", wrap(RequireAuth(sessions, authHandler.UpdateSubscription))).Methods("PATCH")
	router.HandleFunc("/users/logout", wrap(RequireAuth(sessions, authHandler.Logout))).Methods("POST")
	router.HandleFunc("/users/avatars", wrap(RequireAuth(sessions, authHandler.UpdateAvatar))).Methods("PATCH")
	router.HandleFunc("/contacts", wrap(RequireAuth(sessions, contactHandler.List))).Methods("GET")
	router.HandleFunc("/contacts", wrap(RequireAuth(sessions, contactHandler.Create))).Methods("POST")
	router.HandleFunc("/contacts/{id}", wrap(RequireAuth(sessions, contactHandler.Get))).Methods("GET")
	router.HandleFunc("/contacts/{id}", wrap(RequireAuth(sessions, contactHandler.Update))).Methods("PUT")
	router.HandleFunc("/contacts/{id}/favorite", wrap(RequireAuth(sessions, contactHandler.UpdateFavorite))).Methods("PATCH")
	router.HandleFunc("/contacts/{id}", wrap(RequireAuth(sessions, contactHandler.Delete))).Methods("DELETE")

	return &testApp{router: router, users: users, mail: mail}
}

// do performs a JSON request and decodes the response body into a map.
func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	status, raw := a.doRaw(t, method, path, token, body)
	result := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &result))
	}
	return status, result
}

func (a *testApp) doRaw(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}

// registerAndLogin creates a verified account and returns its session token.
func (a *testApp) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	status, _ := a.do(t, "POST", "/users/register", "", map[string]string{
		"name":     "Ivan",
		"email":    email,
		"password": "123456",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := a.do(t, "POST", "/users/login", "", map[string]string{
		"email":    email,
		"password": "123456",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}
