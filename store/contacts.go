package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"contacts-service/httperr"
	"contacts-service/models"
)

// ContactStore owns the contacts table. Every query is filtered by
// owner_id; route-level authentication alone is not trusted.
type ContactStore struct {
	db *sqlx.DB
}

func NewContactStore(db *sqlx.DB) *ContactStore {
	return &ContactStore{db: db}
}

const contactColumns = `id, name, email, phone, favorite, owner_id, created_at, updated_at`

// List returns one page of the owner's contacts in insertion order,
// optionally narrowed to favorites. page starts at 1.
func (s *ContactStore) List(ctx context.Context, owner string, page, limit int, favoriteOnly bool) ([]models.Contact, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = ?`
	args := []interface{}{owner}
	if favoriteOnly {
		query += ` AND favorite = 1`
	}
	query += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	contacts := []models.Contact{}
	if err := s.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, err
	}
	return contacts, nil
}

// GetByID returns 404 when the contact does not exist or belongs to a
// different owner; the two cases are indistinguishable to the caller.
func (s *ContactStore) GetByID(ctx context.Context, owner, id string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.GetContext(ctx, &contact,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ? AND owner_id = ?`, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Create inserts a contact owned by owner. Email and phone are globally
// unique; duplicates surface as 409 before the UNIQUE constraints catch
// anything racing past the lookup.
func (s *ContactStore) Create(ctx context.Context, owner string, contact *models.Contact) error {
	if err := s.checkUnique(ctx, contact.Email, contact.Phone, ""); err != nil {
		return err
	}

	contact.ID = uuid.New().String()
	contact.OwnerID = owner
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID, contact.Name, contact.Email, contact.Phone, contact.Favorite,
		contact.OwnerID, contact.CreatedAt, contact.UpdatedAt)
	if isConstraintViolation(err) {
		return httperr.Conflict("Email or phone in use")
	}
	return err
}

// Update applies the given columns to the owner's contact and returns the
// updated record. fields keys are request-body names (name, email, phone,
// favorite).
func (s *ContactStore) Update(ctx context.Context, owner, id string, fields map[string]interface{}) (*models.Contact, error) {
	if email, ok := fields["email"].(string); ok {
		if err := s.checkUnique(ctx, email, "", id); err != nil {
			return nil, err
		}
	}
	if phone, ok := fields["phone"].(string); ok {
		if err := s.checkUnique(ctx, "", phone, id); err != nil {
			return nil, err
		}
	}

	setParts := []string{}
	args := []interface{}{}
	for _, column := range []string{"name", "email", "phone", "favorite"} {
		if value, ok := fields[column]; ok {
			setParts = append(setParts, column+" = ?")
			args = append(args, value)
		}
	}
	setParts = append(setParts, "updated_at = ?")
	args = append(args, time.Now().UTC(), id, owner)

	query := `UPDATE contacts SET ` + strings.Join(setParts, ", ") + ` WHERE id = ? AND owner_id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if isConstraintViolation(err) {
		return nil, httperr.Conflict("Email or phone in use")
	}
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, notFound(id)
	}

	return s.GetByID(ctx, owner, id)
}

// SetFavorite toggles the favorite flag on the owner's contact.
func (s *ContactStore) SetFavorite(ctx context.Context, owner, id string, favorite bool) (*models.Contact, error) {
	return s.Update(ctx, owner, id, map[string]interface{}{"favorite": favorite})
}

// Delete removes the owner's contact.
func (s *ContactStore) Delete(ctx context.Context, owner, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return notFound(id)
	}
	return nil
}

// checkUnique rejects an email or phone already used by another contact,
// regardless of owner. excludeID skips the contact being updated.
func (s *ContactStore) checkUnique(ctx context.Context, email, phone, excludeID string) error {
	type check struct {
		column, value, message string
	}
	checks := []check{}
	if email != "" {
		checks = append(checks, check{"email", email, "Email in use"})
	}
	if phone != "" {
		checks = append(checks, check{"phone", phone, "Phone in use"})
	}

	for _, c := range checks {
		var count int
		err := s.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM contacts WHERE `+c.column+` = ? AND id != ?`, c.value, excludeID)
		if err != nil {
			return err
		}
		if count > 0 {
			return httperr.Conflict(c.message)
		}
	}
	return nil
}

func notFound(id string) *httperr.Error {
	return httperr.NotFound(fmt.Sprintf("Contact with id %s not found", id))
}
