package models

import "time"

// MenuSection is one entry of the storefront navigation menu.
type MenuSection struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LabelAR    string    `json:"label_ar"`
	LabelEN    string    `json:"label_en"`
	Icon       string    `json:"icon"`
	Path       *string   `json:"path,omitempty"`
	Action     *string   `json:"action,omitempty"`
	OrderIndex int       `json:"order_index"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
