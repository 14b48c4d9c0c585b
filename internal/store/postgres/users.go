package postgres

import (
	"context"
	"database/sql"

	"faultdesk/internal/models"
)

const userSelectFields = `id, username, name, role, manager_id, is_approved, password_hash, created_at, updated_at`

// UserStore implements store.UserStore.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a UserStore.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		managerID sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Role, &managerID, &u.IsApproved, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ManagerID = stringPtr(managerID)
	return &u, nil
}

// List returns every user ordered by name.
func (s *UserStore) List(ctx context.Context) (result0 []models.User, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userSelectFields+` FROM users ORDER BY name, username`)
	if err != nil {
		return nil, translate(err, "list users")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = translate(cerr, "list users")
		}
	}()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "scan user")
		}
		users = append(users, *u)
	}
	return users, translate(rows.Err(), "list users")
}

// Get returns the user with id.
func (s *UserStore) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userSelectFields+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get user "+id)
	}
	return u, nil
}

// GetByUsername looks a user up by its (lower-cased) username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userSelectFields+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, translate(err, "get user by username")
	}
	return u, nil
}

// Upsert inserts or replaces u. A username clash with another id yields ErrRecordExists.
func (s *UserStore) Upsert(ctx context.Context, u *models.User) error {
	const query = `INSERT INTO users (id, username, name, role, manager_id, is_approved, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			manager_id = EXCLUDED.manager_id,
			is_approved = EXCLUDED.is_approved,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Name, string(u.Role), nullString(u.ManagerID), u.IsApproved, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return translate(err, "upsert user")
}

// Delete removes the user row only.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete user")
	}
	return requireRows(res, "delete user "+id)
}
