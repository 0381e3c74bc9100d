package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "changeflow/pkg/domain"
	"changeflow/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, user User) error {
	const query = `
		INSERT INTO users (id, username, display_name, email, password_hash, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (username) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Username, user.DisplayName, user.Email,
		user.PasswordHash, string(user.Role), user.Active, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sentinel.ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (User, error) {
	const query = `
		SELECT id, username, display_name, email, password_hash, role, active, created_at
		FROM users WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FirstActive(ctx context.Context) (User, error) {
	const query = `
		SELECT id, username, display_name, email, password_hash, role, active, created_at
		FROM users WHERE active ORDER BY created_at ASC LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query))
}

func (s *PostgresStore) scanOne(row *sql.Row) (User, error) {
	var (
		u       User
		rawID   uuid.UUID
		rawRole string
	)
	err := row.Scan(&rawID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &rawRole, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.Role = Role(rawRole)
	return u, nil
}
