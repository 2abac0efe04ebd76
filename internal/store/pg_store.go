package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	perrors "github.com/mfreitas/storeapi/internal/errors"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds statements with PostgreSQL $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// productColumns is the fixed column order every statement returns and
// scanProduct consumes.
var productColumns = []string{"id", "name", "description", "quantity", "price", "status", "created_at", "updated_at"}

const returningProduct = "RETURNING id, name, description, quantity, price, status, created_at, updated_at"

// PgStore implements ProductStore using PostgreSQL as the data store.
// Every operation executes exactly one statement on the shared pool.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
	}
}

// Create adds a new product to the system. The ID and both timestamps are
// generated here; created_at and updated_at start out equal.
func (p *PgStore) Create(ctx context.Context, params CreateParams) (*Product, error) {
	now := time.Now().UTC()
	sql, args, err := psql.Insert("products").
		SetMap(map[string]any{
			"id":          uuid.New(),
			"name":        params.Name,
			"description": params.Description,
			"quantity":    params.Quantity,
			"price":       params.Price,
			"status":      params.Status,
			"created_at":  now,
			"updated_at":  now,
		}).
		Suffix(returningProduct).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert statement: %w", err)
	}

	product, err := scanProduct(p.db.QueryRow(ctx, sql, args...))
	if err != nil {
		// No row from an INSERT ... RETURNING is a driver or database
		// anomaly, never a not-found condition.
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns a NotFoundError if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	sql, args, err := psql.Select(productColumns...).
		From("products").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select statement: %w", err)
	}

	product, err := scanProduct(p.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.NewNotFound(id.String())
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindAll retrieves all products ordered by creation time.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	sql, args, err := psql.Select(productColumns...).
		From("products").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select statement: %w", err)
	}

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}
	return products, nil
}

// Update applies the change set to an existing product. Only fields present
// in the change set enter the SET list; updated_at is always refreshed with
// them. An empty change set short-circuits to a plain read and does not
// touch updated_at.
// Returns a NotFoundError if no product exists with the given ID.
func (p *PgStore) Update(ctx context.Context, id uuid.UUID, changes ProductChangeSet) (*Product, error) {
	if changes.Empty() {
		return p.FindByID(ctx, id)
	}

	sql, args, err := psql.Update("products").
		SetMap(changes.toMap()).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix(returningProduct).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update statement: %w", err)
	}

	product, err := scanProduct(p.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.NewNotFound(id.String())
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteByID removes a product by its unique identifier.
// Returns a NotFoundError if no row was deleted.
func (p *PgStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("products").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete statement: %w", err)
	}

	tag, err := p.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.NewNotFound(id.String())
	}
	return nil
}

// scanProduct maps one positional row onto a Product. The column order is
// fixed by productColumns and the RETURNING clauses.
func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Quantity,
		&p.Price,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
