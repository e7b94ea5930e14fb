package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"contacts-service/httperr"
	"contacts-service/models"
)

// UserStore owns the users table.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password, subscription, avatar_url, token, verified, verification_token, created_at, updated_at`

// GetByEmail returns nil without error when no user matches.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID returns nil without error when no user matches.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByVerificationToken returns nil without error when no user holds the
// token; a consumed token never matches because verification clears it.
func (s *UserStore) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE verification_token = ?`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts user and assigns it a fresh id. The UNIQUE constraint on
// email is the second line of defense behind the handler's lookup; a
// violation surfaces as 409 "Email in use".
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Password, user.Subscription,
		user.AvatarURL, user.Token, user.Verified, user.VerificationToken,
		user.CreatedAt, user.UpdatedAt)
	if isConstraintViolation(err) {
		return httperr.Conflict("Email in use")
	}
	return err
}

// SetToken records the single active session token for the user; any
// previously issued token stops resolving from this point on.
func (s *UserStore) SetToken(ctx context.Context, id, token string) error {
	return s.setColumn(ctx, id, "token", token)
}

// ClearToken logs the user out.
func (s *UserStore) ClearToken(ctx context.Context, id string) error {
	return s.setColumn(ctx, id, "token", nil)
}

func (s *UserStore) SetSubscription(ctx context.Context, id, subscription string) error {
	return s.setColumn(ctx, id, "subscription", subscription)
}

func (s *UserStore) SetAvatarURL(ctx context.Context, id, avatarURL string) error {
	return s.setColumn(ctx, id, "avatar_url", avatarURL)
}

// MarkVerified flips the verification flag and consumes the token in one
// statement, so a second verify attempt with the same token finds nothing.
func (s *UserStore) MarkVerified(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET verified = 1, verification_token = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}

func (s *UserStore) setColumn(ctx context.Context, id, column string, value interface{}) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC(), id)
	return err
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
