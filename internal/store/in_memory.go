package store

import (
	"context"
	"sort"
	"sync"
	"time"

	perrors "github.com/mfreitas/storeapi/internal/errors"

	"github.com/google/uuid"
)

// inMemory implements ProductStore using an in-memory map. It mirrors the
// PgStore semantics, including the empty-change-set short circuit, and is
// used by tests that do not need a database.
type inMemory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

// NewInMemoryStore creates a new instance of ProductStore backed by a map.
func NewInMemoryStore() ProductStore {
	return &inMemory{
		products: make(map[uuid.UUID]Product),
	}
}

// Create creates a new product and returns it.
func (s *inMemory) Create(_ context.Context, params CreateParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	product := Product{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Quantity:    params.Quantity,
		Price:       params.Price,
		Status:      params.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[product.ID] = product

	return &product, nil
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.NewNotFound(id.String())
	}
	return &p, nil
}

// FindAll retrieves all products ordered by creation time.
func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Update applies the change set and refreshes updated_at. An empty change
// set reads the product back unchanged.
func (s *inMemory) Update(ctx context.Context, id uuid.UUID, changes ProductChangeSet) (*Product, error) {
	if changes.Empty() {
		return s.FindByID(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.NewNotFound(id.String())
	}
	if changes.Quantity != nil {
		p.Quantity = *changes.Quantity
	}
	if changes.Price != nil {
		p.Price = *changes.Price
	}
	if changes.Status != nil {
		p.Status = *changes.Status
	}
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p

	return &p, nil
}

// DeleteByID deletes a product by its ID.
func (s *inMemory) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return perrors.NewNotFound(id.String())
	}
	delete(s.products, id)
	return nil
}
