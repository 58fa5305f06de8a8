package pricing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/exploremore-ph/exploremore/internal/db"
)

type Store interface {
	ListSpots(ctx context.Context) ([]Spot, error)
	GetSpot(ctx context.Context, id int) (Spot, error)
	Breakdown(ctx context.Context, spotID int) ([]Item, error)
	Upsert(ctx context.Context, it Item) (Item, error)
	Seed(ctx context.Context, seed []SeedSpot) (bool, error)
}

type SQLStore struct{ DB *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

func (s *SQLStore) ListSpots(ctx context.Context) ([]Spot, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, location, region FROM tourist_spots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Spot{}
	for rows.Next() {
		var sp Spot
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Location, &sp.Region); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetSpot(ctx context.Context, id int) (Spot, error) {
	var sp Spot
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, location, region FROM tourist_spots WHERE id=$1`, id).
		Scan(&sp.ID, &sp.Name, &sp.Location, &sp.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return Spot{}, ErrSpotNotFound
	}
	return sp, err
}

// Breakdown keeps insertion order, which is the order the site renders.
func (s *SQLStore) Breakdown(ctx context.Context, spotID int) ([]Item, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, spot_id, category, label, price_min, price_max, notes, updated_at
		 FROM price_breakdown WHERE spot_id=$1 ORDER BY id`, spotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SpotID, &it.Category, &it.Label, &it.PriceMin, &it.PriceMax, &it.Notes, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) Upsert(ctx context.Context, it Item) (Item, error) {
	if it.UpdatedAt == 0 {
		it.UpdatedAt = time.Now().Unix()
	}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO price_breakdown (spot_id, category, label, price_min, price_max, notes, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (spot_id, category, label) DO UPDATE SET
		   price_min=excluded.price_min,
		   price_max=excluded.price_max,
		   notes=excluded.notes,
		   updated_at=excluded.updated_at
		 RETURNING id`,
		it.SpotID, it.Category, it.Label, it.PriceMin, it.PriceMax, it.Notes, it.UpdatedAt).Scan(&it.ID)
	return it, err
}

// Seed loads spots and their breakdowns when tourist_spots is empty.
// It reports whether anything was written.
func (s *SQLStore) Seed(ctx context.Context, seed []SeedSpot) (bool, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM tourist_spots`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	now := time.Now().Unix()
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, sp := range seed {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tourist_spots (id, name, location, region) VALUES ($1,$2,$3,$4)`,
				sp.ID, sp.Name, sp.Location, sp.Region); err != nil {
				return err
			}
			for _, b := range sp.Breakdown {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO price_breakdown (spot_id, category, label, price_min, price_max, notes, updated_at)
					 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
					sp.ID, b.Category, b.Label, b.Min, b.Max, b.Notes, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return err == nil, err
}
