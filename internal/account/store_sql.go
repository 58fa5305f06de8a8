package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type Store interface {
	Create(ctx context.Context, u User, hash string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, string, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	CountRole(ctx context.Context, role string) (int, error)
	CountUsers(ctx context.Context) (int, error)
	ListWithFeedback(ctx context.Context) ([]UserWithFeedback, error)
}

type SQLStore struct{ DB *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const userCols = `id, username, fullname, email, role, created_at`

func scanUser(row interface{ Scan(...any) error }, extra ...any) (User, error) {
	var u User
	dest := append([]any{&u.ID, &u.Username, &u.Fullname, &u.Email, &u.Role, &u.CreatedAt}, extra...)
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLStore) Create(ctx context.Context, u User, hash string) (User, error) {
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, fullname, email, password_hash, role, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		u.Username, u.Fullname, u.Email, hash, u.Role, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *SQLStore) GetByID(ctx context.Context, id int64) (User, error) {
	return scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

// GetByEmail also returns the password hash for credential checks.
func (s *SQLStore) GetByEmail(ctx context.Context, email string) (User, string, error) {
	var hash string
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userCols+`, password_hash FROM users WHERE LOWER(email)=LOWER($1)`, email), &hash)
	return u, hash, err
}

func (s *SQLStore) FindByEmailOrUsername(ctx context.Context, email, username string) (User, error) {
	return scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER($1) OR username=$2 ORDER BY id LIMIT 1`,
		email, username))
}

func (s *SQLStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.execOne(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id)
}

func (s *SQLStore) UpdateRole(ctx context.Context, id int64, role string) error {
	return s.execOne(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id)
}

func (s *SQLStore) CountRole(ctx context.Context, role string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role=$1`, role).Scan(&n)
	return n, err
}

func (s *SQLStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}

func (s *SQLStore) ListWithFeedback(ctx context.Context) ([]UserWithFeedback, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT u.id, u.username, u.fullname, u.email, u.role, u.created_at,
       COUNT(f.id),
       COALESCE(SUM(CASE WHEN f.is_verified THEN 1 ELSE 0 END), 0),
       MAX(f.created_at)
FROM users u
LEFT JOIN feedback f ON f.user_id = u.id
GROUP BY u.id, u.username, u.fullname, u.email, u.role, u.created_at
ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserWithFeedback{}
	for rows.Next() {
		var r UserWithFeedback
		var last sql.NullInt64
		u, err := scanUser(rows, &r.FeedbackCount, &r.VerifiedCount, &last)
		if err != nil {
			return nil, err
		}
		r.User = u
		if last.Valid {
			v := last.Int64
			r.LastFeedbackAt = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) execOne(ctx context.Context, q string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
