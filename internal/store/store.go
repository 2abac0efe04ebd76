// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product row. Price is an exact decimal; it never
// passes through a float.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Quantity    int32
	Price       decimal.Decimal
	Status      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams holds the caller-supplied fields for a new product.
// ID and timestamps are generated by the store.
type CreateParams struct {
	Name        string
	Description *string
	Quantity    int32
	Price       decimal.Decimal
	Status      bool
}

// ProductChangeSet describes a partial update. A nil field is left
// untouched. Only quantity, price and status are settable; id, name,
// description and created_at can never be changed through an update.
type ProductChangeSet struct {
	Quantity *int32
	Price    *decimal.Decimal
	Status   *bool
}

// Empty reports whether the change set carries no settable fields.
func (cs ProductChangeSet) Empty() bool {
	return cs.Quantity == nil && cs.Price == nil && cs.Status == nil
}

// toMap folds the present fields into a column -> value map. The column
// names are fixed here; caller input never reaches the SQL text.
func (cs ProductChangeSet) toMap() map[string]any {
	m := make(map[string]any, 3)
	if cs.Quantity != nil {
		m["quantity"] = *cs.Quantity
	}
	if cs.Price != nil {
		m["price"] = *cs.Price
	}
	if cs.Status != nil {
		m["status"] = *cs.Status
	}
	return m
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// Create adds a new product. The store generates the ID and sets
	// created_at and updated_at to the same instant.
	Create(ctx context.Context, params CreateParams) (*Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns a NotFoundError if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll returns all products ordered by creation time.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Update applies the change set to an existing product and refreshes
	// updated_at. An empty change set reads the product back unchanged.
	// Returns a NotFoundError if no product exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, changes ProductChangeSet) (*Product, error)

	// DeleteByID removes a product by its ID. Deleting the same ID twice
	// returns a NotFoundError the second time.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
