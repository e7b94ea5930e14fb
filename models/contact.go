package models

import "time"

// Contact is an address-book entry. Every contact belongs to exactly one
// owner; the store filters every query by OwnerID so a caller can never
// see or touch another user's contacts.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Favorite  bool      `json:"favorite" db:"favorite"`
	OwnerID   string    `json:"owner" db:"owner_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}
