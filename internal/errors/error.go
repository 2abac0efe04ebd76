// Package errors provides typed failures for product operations.
package errors

import "errors"

// ErrProductNotFound is the sentinel matched with errors.Is when a product
// lookup, update or delete targets an id with no corresponding row.
var ErrProductNotFound = errors.New("product not found")

// NotFoundError carries the filter value that matched no product. It wraps
// ErrProductNotFound so callers can match it with errors.Is.
type NotFoundError struct {
	Filter string
}

// NewNotFound creates a NotFoundError for the given filter value.
func NewNotFound(filter string) *NotFoundError {
	return &NotFoundError{Filter: filter}
}

func (e *NotFoundError) Error() string {
	return "Product not found with filter: " + e.Filter
}

func (e *NotFoundError) Unwrap() error {
	return ErrProductNotFound
}
