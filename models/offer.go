package models

import "time"

// Offer is the storefront bundle. Exactly one offer row is current.
type Offer struct {
	ID              string    `json:"id"`
	IsActive        bool      `json:"is_active"`
	Price           string    `json:"price"`
	WhatsAppMessage string    `json:"whatsapp_message"`
	Services        []Service `json:"products"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OfferUpdate carries the optional fields of an offer update. A nil
// ServiceIDs leaves the current selection untouched; an empty slice clears it.
type OfferUpdate struct {
	IsActive        *bool
	Price           *string
	WhatsAppMessage *string
	ServiceIDs      []string
}

const DefaultWhatsAppMessage = "Hello, I am interested in the bundle offer."
