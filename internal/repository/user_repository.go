package repository

import (
	"database/sql"
	"fmt"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, photo_url, external_auth_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(query,
		user.ID, user.Email, user.DisplayName,
		nullString(user.PhotoURL), nullString(user.ExternalAuthID), nullString(user.PasswordHash),
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(userID string) (*models.User, error) {
	return r.getOne(`WHERE id = $1`, userID)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`WHERE email = $1`, email)
}

func (r *UserRepository) getOne(where string, arg any) (*models.User, error) {
	query := `
		SELECT id, email, display_name, photo_url, external_auth_id, password_hash, created_at, updated_at
		FROM users ` + where

	var user models.User
	var photoURL, externalAuthID, passwordHash sql.NullString
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName,
		&photoURL, &externalAuthID, &passwordHash,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.PhotoURL = photoURL.String
	user.ExternalAuthID = externalAuthID.String
	user.PasswordHash = passwordHash.String
	return &user, nil
}

func (r *UserRepository) UpdateProfile(userID, displayName, photoURL string) (*models.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE(NULLIF($2, ''), display_name),
		    photo_url = COALESCE(NULLIF($3, ''), photo_url),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, userID, displayName, photoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(userID)
}
