// Package audit records domain events in the event_log table.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/exploremore-ph/exploremore/internal/db"
)

const (
	TypeQuizCompleted      = "QuizCompleted"
	TypeFeedbackSubmitted  = "FeedbackSubmitted"
	TypeFeedbackVerified   = "FeedbackVerified"
	TypeFeedbackUnverified = "FeedbackUnverified"
	TypeFeedbackDeleted    = "FeedbackDeleted"
	TypeFeedbackRefiltered = "FeedbackRefiltered"
	TypeUserSignedUp       = "UserSignedUp"
	TypeUserRoleChanged    = "UserRoleChanged"
	TypePriceUpdated       = "PriceUpdated"
	TypeImageUploaded      = "ImageUploaded"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Appender is what domain handlers depend on.
type Appender interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type EventRepo struct {
	db     *sql.DB
	siteID string
	now    func() time.Time
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db, siteID: "local", now: time.Now}
}

// Append stores one event; data is encoded as JSON.
func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", typ, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, typ, key, string(raw), r.now().Unix())
	return err
}

// Search returns the newest events first. q matches type or key as a
// case-insensitive substring; empty q returns everything.
func (r *EventRepo) Search(ctx context.Context, q string, limit, offset int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE LOWER(typ) LIKE $1 ESCAPE '\' OR LOWER(key) LIKE $1 ESCAPE '\'
		 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		db.ContainsPattern(strings.TrimSpace(q)), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
