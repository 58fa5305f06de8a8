// Package pricing serves the per-destination cost breakdowns.
package pricing

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/exploremore-ph/exploremore/internal/audit"
	"github.com/exploremore-ph/exploremore/internal/logging"
)

//go:embed seed.yaml
var seedYAML []byte

type SeedSpot struct {
	ID        int        `yaml:"id"`
	Name      string     `yaml:"name"`
	Location  string     `yaml:"location"`
	Region    string     `yaml:"region"`
	Breakdown []SeedItem `yaml:"breakdown"`
}

type SeedItem struct {
	Category string  `yaml:"category"`
	Label    string  `yaml:"label"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Notes    string  `yaml:"notes"`
}

// DefaultSeed returns the built-in spots and price lines.
func DefaultSeed() ([]SeedSpot, error) {
	var f struct {
		Spots []SeedSpot `yaml:"spots"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(seedYAML))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse price seed: %w", err)
	}
	return f.Spots, nil
}

type Service struct {
	store Store
	audit audit.Appender
}

func NewService(store Store, events audit.Appender) *Service {
	return &Service{store: store, audit: events}
}

// EnsureSeeded populates an empty database with DefaultSeed.
func (s *Service) EnsureSeeded(ctx context.Context) error {
	seed, err := DefaultSeed()
	if err != nil {
		return err
	}
	wrote, err := s.store.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed prices: %w", err)
	}
	if wrote {
		logging.Info().Int("spots", len(seed)).Msg("price breakdown seeded")
	}
	return nil
}

func (s *Service) Spots(ctx context.Context) ([]Spot, error) { return s.store.ListSpots(ctx) }

func (s *Service) Breakdown(ctx context.Context, spotID int) (Spot, []Item, error) {
	sp, err := s.store.GetSpot(ctx, spotID)
	if err != nil {
		return Spot{}, nil, err
	}
	items, err := s.store.Breakdown(ctx, spotID)
	return sp, items, err
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (Item, error) {
	if in.PriceMin > in.PriceMax {
		return Item{}, ErrBadRange
	}
	if _, err := s.store.GetSpot(ctx, in.SpotID); err != nil {
		return Item{}, err
	}
	it, err := s.store.Upsert(ctx, Item{
		SpotID:   in.SpotID,
		Category: strings.TrimSpace(in.Category),
		Label:    strings.TrimSpace(in.Label),
		PriceMin: in.PriceMin,
		PriceMax: in.PriceMax,
		Notes:    strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return Item{}, err
	}
	if s.audit != nil {
		key := "spot:" + strconv.Itoa(in.SpotID)
		if err := s.audit.Append(ctx, audit.TypePriceUpdated, key, it); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("audit append failed")
		}
	}
	return it, nil
}
