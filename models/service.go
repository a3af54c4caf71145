package models

import "time"

// Service is a subscription plan shown on the storefront.
type Service struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         string    `json:"price"`
	OriginalPrice *string   `json:"original_price,omitempty"`
	Features      []string  `json:"features"`
	Color         string    `json:"color"`
	LogoURL       *string   `json:"logo_url,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
