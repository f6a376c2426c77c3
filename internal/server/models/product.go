package models

import "time"

// Product categories accepted by the catalog.
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryBooks       = "books"
)

// Categories lists every accepted product category.
var Categories = []string{CategoryElectronics, CategoryClothing, CategoryBooks}

type Product struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	Category      string
	IsAvailable   bool
	ImagePath     *string
	CreatedAt     time.Time
	OwnerID       string
	OwnerUserName string
}

// ResourceOwnerID lets the authorization guard check product ownership.
func (p *Product) ResourceOwnerID() string {
	return p.OwnerID
}
