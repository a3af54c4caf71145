package models

import "time"

const (
	DefaultDigitalProductRating = 4.5
	MinDigitalProductRating     = 0.0
	MaxDigitalProductRating     = 5.0
)

// DigitalProduct is a downloadable catalog item sold by the storefront itself.
type DigitalProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         string    `json:"price"`
	OriginalPrice *string   `json:"original_price,omitempty"`
	Category      string    `json:"category"`
	Icon          string    `json:"icon"`
	Features      []string  `json:"features"`
	Rating        float64   `json:"rating"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClampRating bounds r to the allowed rating range.
func ClampRating(r float64) float64 {
	if r < MinDigitalProductRating {
		return MinDigitalProductRating
	}
	if r > MaxDigitalProductRating {
		return MaxDigitalProductRating
	}
	return r
}

// DigitalProductFilter narrows a digital product listing. Zero values mean no filter.
type DigitalProductFilter struct {
	Category string
	Active   *bool
}
