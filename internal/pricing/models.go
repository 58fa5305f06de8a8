package pricing

import "errors"

var (
	ErrSpotNotFound = errors.New("tourist spot not found")
	ErrBadRange     = errors.New("price_min must not exceed price_max")
)

type Spot struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Region   string `json:"region"`
}

// Item is one line of a spot's price breakdown. Prices are PHP.
type Item struct {
	ID        int64   `json:"id"`
	SpotID    int     `json:"spot_id"`
	Category  string  `json:"category"`
	Label     string  `json:"label"`
	PriceMin  float64 `json:"price_min"`
	PriceMax  float64 `json:"price_max"`
	Notes     string  `json:"notes"`
	UpdatedAt int64   `json:"updated_at"`
}

// UpdateInput upserts on (spot, category, label).
type UpdateInput struct {
	SpotID   int     `json:"spotId" validate:"required,gt=0"`
	Category string  `json:"category" validate:"required,max=100"`
	Label    string  `json:"label" validate:"required,max=255"`
	PriceMin float64 `json:"price_min" validate:"gte=0"`
	PriceMax float64 `json:"price_max" validate:"gte=0"`
	Notes    string  `json:"notes" validate:"max=1000"`
}
