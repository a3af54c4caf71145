package models

import "time"

// Product is a marketplace listing owned by a seller.
type Product struct {
	ID                string         `json:"id"`
	SellerID          string         `json:"seller_id"`
	SellerUsername    string         `json:"seller_username,omitempty"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Price             float64        `json:"price"`
	Category          string         `json:"category"`
	AdditionalDetails *string        `json:"additional_details,omitempty"`
	SellerPhone       string         `json:"seller_phone"`
	IsActive          bool           `json:"is_active"`
	Images            []ProductImage `json:"images"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ProductImage points at a stored image. StorageKey is internal to the image store.
type ProductImage struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	StorageKey string    `json:"-"`
	URL        string    `json:"url"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductFilter narrows a product listing. Zero values mean no filter.
type ProductFilter struct {
	Category string
	SellerID string
	Active   *bool
}

// CanBeModifiedBy reports whether u may edit or delete the product.
func (p *Product) CanBeModifiedBy(u *User) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || u.ID == p.SellerID
}
