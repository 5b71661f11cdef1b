package store

import (
	"context"
	"database/sql"
	"time"

	"portfolio-admin/core/rbac"
)

type UsersStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error

	// RecordFailure bumps the failed-attempt counter and, when the
	// post-increment count reaches threshold, sets locked_until to lockExpiry
	// in the same statement. It returns the post-increment state.
	RecordFailure(ctx context.Context, id string, lockExpiry time.Time, threshold int) (attempts int, lockedUntil *time.Time, err error)
	ResetOnSuccess(ctx context.Context, id string, now time.Time) error
	UpdateAfterAdminReset(ctx context.Context, id string, digest string) error
	UpdatePassword(ctx context.Context, id string, digest string, mustReset bool) error
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, email, display_name, password_digest, role, status, must_reset_password, failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, username)
	return scanUser(row)
}

func (s *usersStore) Get(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := User{}
	var role, status string
	var mustReset, attempts int
	var locked, lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.PasswordDigest,
		&role, &status, &mustReset, &attempts, &locked, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.Role = rbac.Role(role)
	u.Status = Status(status)
	u.MustResetPassword = mustReset == 1
	u.FailedLoginAttempts = attempts
	if locked.Valid {
		t := locked.Time
		u.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *usersStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}

func (s *usersStore) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users(`+userColumns+`)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.DisplayName, u.PasswordDigest, string(u.Role), string(u.Status),
		boolToInt(u.MustResetPassword), u.FailedLoginAttempts, nullTime(u.LockedUntil), nullTime(u.LastLoginAt), now, now)
	return err
}

func (s *usersStore) Update(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET email=?, display_name=?, role=?, status=?, updated_at=?
		WHERE id=?`,
		u.Email, u.DisplayName, string(u.Role), string(u.Status), now, u.ID)
	return err
}

func (s *usersStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	return err
}

func (s *usersStore) RecordFailure(ctx context.Context, id string, lockExpiry time.Time, threshold int) (int, *time.Time, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			locked_until = CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE NULL END,
			updated_at = ?
		WHERE id = ?
		RETURNING failed_login_attempts, locked_until`,
		threshold, lockExpiry, now, id)
	var attempts int
	var locked sql.NullTime
	if err := row.Scan(&attempts, &locked); err != nil {
		return 0, nil, err
	}
	if locked.Valid {
		t := locked.Time
		return attempts, &t, nil
	}
	return attempts, nil, nil
}

func (s *usersStore) ResetOnSuccess(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET failed_login_attempts=0, locked_until=NULL, last_login_at=?, updated_at=?
		WHERE id=?`, now, now, id)
	return err
}

func (s *usersStore) UpdateAfterAdminReset(ctx context.Context, id string, digest string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_digest=?, must_reset_password=1, failed_login_attempts=0, locked_until=NULL, updated_at=?
		WHERE id=?`, digest, now, id)
	return err
}

func (s *usersStore) UpdatePassword(ctx context.Context, id string, digest string, mustReset bool) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_digest=?, must_reset_password=?, updated_at=?
		WHERE id=?`, digest, boolToInt(mustReset), now, id)
	return err
}
