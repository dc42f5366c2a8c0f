package repository

import (
	"context"
	"database/sql"

	"github.com/leadloft/outreach-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by the composer
type ContactRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*model.Contact, error)
	ListAll(ctx context.Context) ([]model.Contact, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

// GetByEmail fetches a contact by email; nil when not found.
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	query := `
        SELECT id, email, first_name, last_name, company
        FROM contacts
        WHERE email = $1
    `
	row := r.DB.QueryRowContext(ctx, query, email)

	var c model.Contact
	if err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListAll fetches all contacts
func (r *ContactRepository) ListAll(ctx context.Context) ([]model.Contact, error) {
	query := `
        SELECT id, email, first_name, last_name, company
        FROM contacts
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
