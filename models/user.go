package models

import (
	"database/sql"
	"time"
)

// Subscription tiers a user can hold.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// User represents a registered account.
// Password holds the bcrypt hash and is never serialized; Token is the
// single active session token (NULL means logged out).
type User struct {
	ID                string         `json:"id" db:"id"`
	Name              string         `json:"name" db:"name"`
	Email             string         `json:"email" db:"email"`
	Password          string         `json:"-" db:"password"`
	Subscription      string         `json:"subscription" db:"subscription"`
	AvatarURL         string         `json:"avatarUrl" db:"avatar_url"`
	Token             sql.NullString `json:"-" db:"token"`
	Verified          bool           `json:"-" db:"verified"`
	VerificationToken sql.NullString `json:"-" db:"verification_token"`
	CreatedAt         time.Time      `json:"-" db:"created_at"`
	UpdatedAt         time.Time      `json:"-" db:"updated_at"`
}

// Profile is the public projection returned by register and /users/current.
type Profile struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

// LoginUser is the user object embedded in the login response; it mirrors
// the session token claims.
type LoginUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarUrl"`
}

// Profile returns the public projection of u.
func (u *User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email, Subscription: u.Subscription}
}

// LoginUser returns the login-response projection of u.
func (u *User) LoginUser() LoginUser {
	return LoginUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}
