package catalog

import (
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product as read back from the store. CategoryName comes from a LEFT JOIN and
// is nil when the referenced category no longer exists.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	Price        float64   `json:"price"`
	CategoryID   *int64    `json:"category_id"`
	Quantity     int       `json:"quantity"`
	ImageURL     *string   `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	CategoryName *string   `json:"category_name"`
}

// ProductRequest is the full payload for both create and update.
// Quantity is a pointer so an explicit 0 passes the required check.
// Price stays below 1e8 so it fits NUMERIC(10,2) on postgres.
type ProductRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Description *string `json:"description"`
	Price       float64 `json:"price" binding:"required,lt=100000000"`
	CategoryID  int64   `json:"category_id" binding:"required"`
	Quantity    *int    `json:"quantity" binding:"required"`
	ImageURL    *string `json:"image_url" binding:"omitempty,max=500"`
}

func (r ProductRequest) QuantityValue() int {
	if r.Quantity == nil {
		return 0
	}
	return *r.Quantity
}
