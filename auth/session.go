package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"contacts-service/httperr"
	"contacts-service/models"
	"contacts-service/store"
)

// Claims is the signed claim set carried by a session token. The claims
// are a snapshot taken at login; the store remains the source of truth
// for authorization and display, so Resolve always returns the current
// user record rather than trusting these values.
type Claims struct {
	jwt.RegisteredClaims
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarUrl"`
}

// SessionManager issues, verifies and revokes bearer tokens. A user holds
// at most one live session: issuing a new token overwrites the stored one,
// and Resolve rejects any token that no longer matches the stored value.
type SessionManager struct {
	users  *store.UserStore
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(users *store.UserStore, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{users: users, secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for user and persists it as the active session.
func (m *SessionManager) Issue(ctx context.Context, user *models.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Subscription: user.Subscription,
		AvatarURL:    user.AvatarURL,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}

	if err := m.users.SetToken(ctx, user.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve verifies the token signature and expiry, then loads the claimed
// user and requires the stored session token to match the presented one.
// The stored comparison is what makes logout and session replacement take
// effect before the signature expires.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, httperr.Unauthorized("invalid token")
	}

	user, err := m.users.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Token.Valid || user.Token.String != token {
		return nil, httperr.Unauthorized("unauthenticated")
	}
	return user, nil
}

// Revoke clears the stored session token so the token stops resolving.
func (m *SessionManager) Revoke(ctx context.Context, user *models.User) error {
	return m.users.ClearToken(ctx, user.ID)
}
