package domain

import "time"

// ProductRecord is the persisted shape of a chosen product
type ProductRecord struct {
	Title      string `json:"title" db:"title"`
	ProductURL string `json:"productUrl" db:"product_url"`
	Store      string `json:"store" db:"store"`
	Price      string `json:"price" db:"price"`
}

// RecordFromCandidate strips scoring and enrichment fields from a candidate
func RecordFromCandidate(c Candidate) ProductRecord {
	return ProductRecord{
		Title:      c.Title,
		ProductURL: c.ProductURL,
		Store:      c.Store,
		Price:      c.Price,
	}
}

// SessionItem is an item together with the products the user kept for it
type SessionItem struct {
	Item     Item            `json:"item"`
	Products []ProductRecord `json:"products"`
}

// Session is one analysed photo and its saved results
type Session struct {
	ID        string        `json:"id"`
	ImagePath string        `json:"imagePath"`
	CreatedAt time.Time     `json:"createdAt"`
	Items     []SessionItem `json:"items"`
}

// SessionSummary is a row of the session history list
type SessionSummary struct {
	ID        string    `json:"id" db:"id"`
	ImagePath string    `json:"imagePath" db:"image_path"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ItemCount int       `json:"itemCount" db:"item_count"`
}
