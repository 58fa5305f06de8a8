package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/exploremore-ph/exploremore/internal/db"
)

type Store interface {
	Insert(ctx context.Context, f Feedback) (Feedback, error)
	Get(ctx context.Context, id int64) (Feedback, error)
	List(ctx context.Context, q ListParams) ([]Feedback, error)
	SetVerified(ctx context.Context, id int64, verified bool, at int64) error
	Delete(ctx context.Context, id int64) error
	UpdateFiltered(ctx context.Context, id int64, filtered string, profane bool) error
	Stats(ctx context.Context) (Stats, error)
	ProfanityStats(ctx context.Context) (ProfanityStats, error)
}

type SQLStore struct{ DB *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const selectFeedback = `
SELECT f.id, f.user_id, COALESCE(u.username, ''), f.feedback, f.filtered_feedback,
       f.is_profane, f.is_verified, f.created_at, f.verified_at
FROM feedback f
LEFT JOIN users u ON u.id = f.user_id`

func scanFeedback(row interface{ Scan(...any) error }) (Feedback, error) {
	var f Feedback
	var verifiedAt sql.NullInt64
	err := row.Scan(&f.ID, &f.UserID, &f.Username, &f.Feedback, &f.Filtered,
		&f.IsProfane, &f.IsVerified, &f.CreatedAt, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Feedback{}, ErrNotFound
	}
	if verifiedAt.Valid {
		v := verifiedAt.Int64
		f.VerifiedAt = &v
	}
	return f, err
}

func (s *SQLStore) Insert(ctx context.Context, f Feedback) (Feedback, error) {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO feedback (user_id, feedback, filtered_feedback, is_profane, is_verified, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		f.UserID, f.Feedback, f.Filtered, f.IsProfane, f.IsVerified, f.CreatedAt).Scan(&f.ID)
	return f, err
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Feedback, error) {
	return scanFeedback(s.DB.QueryRowContext(ctx, selectFeedback+` WHERE f.id=$1`, id))
}

func (s *SQLStore) List(ctx context.Context, q ListParams) ([]Feedback, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.Search != "" {
		p := arg(db.ContainsPattern(q.Search))
		where = append(where, fmt.Sprintf("(LOWER(f.feedback) LIKE %[1]s ESCAPE '%[2]s' OR LOWER(f.filtered_feedback) LIKE %[1]s ESCAPE '%[2]s')", p, db.LikeEscape))
	}
	if q.User != "" {
		p := arg(db.ContainsPattern(q.User))
		where = append(where, fmt.Sprintf("(LOWER(u.username) LIKE %[1]s ESCAPE '%[2]s' OR LOWER(u.email) LIKE %[1]s ESCAPE '%[2]s')", p, db.LikeEscape))
	}
	if q.Verified != nil {
		where = append(where, "f.is_verified = "+arg(*q.Verified))
	}
	if q.Profane != nil {
		where = append(where, "f.is_profane = "+arg(*q.Profane))
	}
	if q.FromUnix != 0 || q.ToUnix != 0 {
		where = append(where, "f.created_at >= "+arg(q.FromUnix), "f.created_at < "+arg(q.ToUnix))
	}

	query := selectFeedback
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY f.created_at DESC, f.id DESC"
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit) + " OFFSET " + arg(q.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetVerified(ctx context.Context, id int64, verified bool, at int64) error {
	var ts any
	if verified {
		ts = at
	}
	return s.execOne(ctx, `UPDATE feedback SET is_verified=$1, verified_at=$2 WHERE id=$3`, verified, ts, id)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM feedback WHERE id=$1`, id)
}

func (s *SQLStore) UpdateFiltered(ctx context.Context, id int64, filtered string, profane bool) error {
	return s.execOne(ctx, `UPDATE feedback SET filtered_feedback=$1, is_profane=$2 WHERE id=$3`, filtered, profane, id)
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(1),
       COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN is_profane THEN 1 ELSE 0 END), 0),
       (SELECT COUNT(1) FROM users)
FROM feedback`).Scan(&st.Total, &st.Verified, &st.Filtered, &st.Users)
	st.Unverified = st.Total - st.Verified
	return st, err
}

func (s *SQLStore) ProfanityStats(ctx context.Context) (ProfanityStats, error) {
	var st ProfanityStats
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(1), COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0)
FROM feedback WHERE is_profane`).Scan(&st.TotalProfane, &st.VerifiedProfane)
	st.UnverifiedProfane = st.TotalProfane - st.VerifiedProfane
	return st, err
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
