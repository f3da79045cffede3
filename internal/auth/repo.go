package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buzzatt/internal/model"
	"buzzatt/internal/store"
)

// Account is a user together with the stored password hash.
type Account struct {
	model.User
	PasswordHash string
}

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail returns the account for email, or nil when none exists.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, matric_number, department, faculty, profile_type, hashed_password
		FROM users
		WHERE email = $1
	`, email)

	var (
		acc     Account
		matric  sql.NullString
		profile string
	)
	err := row.Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName, &matric,
		&acc.Department, &acc.Faculty, &profile, &acc.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if matric.Valid {
		acc.MatricNumber = &matric.String
	}
	acc.ProfileType = model.ProfileType(profile)
	return &acc, nil
}

// Create inserts a user and returns it with its generated id.
func (r *Repository) Create(ctx context.Context, u model.User, passwordHash string) (model.User, error) {
	var matric sql.NullString
	if u.MatricNumber != nil {
		matric = sql.NullString{String: *u.MatricNumber, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, first_name, last_name, matric_number, department, faculty, hashed_password, profile_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, u.Email, u.FirstName, u.LastName, matric, u.Department, u.Faculty, passwordHash, string(u.ProfileType))
	if err := row.Scan(&u.ID); err != nil {
		// email is the only unique column besides the key.
		if store.IsUniqueViolation(err, "") {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
