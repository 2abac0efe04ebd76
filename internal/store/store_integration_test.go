package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/mfreitas/storeapi/internal/errors"
	"github.com/mfreitas/storeapi/pkg/bootstrap"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOREAPI_SKIP_INTEGRATION_TESTS"

// ProductStoreSuite is a test suite for the PgStore implementation.
type ProductStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       ProductStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container, applies migrations and builds the store.
func (s *ProductStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "store"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container and wait until it accepts connections.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. Create the pool through bootstrap so the decimal codec is registered.
	s.dbPool, err = bootstrap.NewDbPool(s.ctx, connStr, time.Minute)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	// 4. Apply migrations
	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for ProductStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *ProductStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest isolates each test by truncating the products table.
func (s *ProductStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products")
	require.NoError(s.T(), err, "Failed to truncate products table")
}

func (s *ProductStoreSuite) createIphone() *Product {
	description := "Apple."
	created, err := s.store.Create(s.ctx, CreateParams{
		Name:        "Iphone 14 Pro Max",
		Description: &description,
		Quantity:    10,
		Price:       decimal.RequireFromString("8500.00"),
		Status:      true,
	})
	require.NoError(s.T(), err)
	return created
}

func (s *ProductStoreSuite) TestCreate_ReturnsPersistedProduct() {
	created := s.createIphone()

	assert.NotEqual(s.T(), uuid.Nil, created.ID)
	assert.Equal(s.T(), "Iphone 14 Pro Max", created.Name)
	require.NotNil(s.T(), created.Description)
	assert.Equal(s.T(), "Apple.", *created.Description)
	assert.Equal(s.T(), int32(10), created.Quantity)
	// Exact decimal, no float round trip.
	assert.True(s.T(), decimal.RequireFromString("8500.00").Equal(created.Price), "expected price 8500.00, got %s", created.Price)
	assert.True(s.T(), created.Status)
	assert.True(s.T(), created.CreatedAt.Equal(created.UpdatedAt))
}

func (s *ProductStoreSuite) TestCreate_GeneratesUniqueIDs() {
	first := s.createIphone()
	second := s.createIphone()
	assert.NotEqual(s.T(), first.ID, second.ID)
}

func (s *ProductStoreSuite) TestFindByID_AfterCreate_ReturnsEqualRecord() {
	created := s.createIphone()

	found, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created, found)
}

func (s *ProductStoreSuite) TestFindByID_UnknownID_NotFound() {
	id := uuid.New()

	_, err := s.store.FindByID(s.ctx, id)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	assert.Contains(s.T(), err.Error(), "Product not found with filter: "+id.String())
}

func (s *ProductStoreSuite) TestFindAll_EmptyTable() {
	list, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *ProductStoreSuite) TestFindAll_ReturnsAllInCreationOrder() {
	names := []string{"first", "second", "third"}
	for _, name := range names {
		_, err := s.store.Create(s.ctx, CreateParams{
			Name:     name,
			Quantity: 1,
			Price:    decimal.RequireFromString("1.00"),
			Status:   true,
		})
		require.NoError(s.T(), err)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 3)
	for i, name := range names {
		assert.Equal(s.T(), name, list[i].Name)
	}
}

func (s *ProductStoreSuite) TestUpdate_PriceOnly() {
	created := s.createIphone()

	time.Sleep(10 * time.Millisecond)

	updated, err := s.store.Update(s.ctx, created.ID, ProductChangeSet{
		Price: ptr(decimal.RequireFromString("7.50")),
	})
	require.NoError(s.T(), err)

	assert.True(s.T(), decimal.RequireFromString("7.50").Equal(updated.Price), "expected price 7.50, got %s", updated.Price)
	assert.Equal(s.T(), created.ID, updated.ID)
	assert.Equal(s.T(), created.Name, updated.Name)
	assert.Equal(s.T(), created.Description, updated.Description)
	assert.Equal(s.T(), created.Quantity, updated.Quantity)
	assert.Equal(s.T(), created.Status, updated.Status)
	assert.True(s.T(), created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(s.T(), updated.UpdatedAt.After(created.UpdatedAt))
}

func (s *ProductStoreSuite) TestUpdate_AllSettableFields() {
	created := s.createIphone()

	updated, err := s.store.Update(s.ctx, created.ID, ProductChangeSet{
		Quantity: ptr(int32(3)),
		Price:    ptr(decimal.RequireFromString("1999.99")),
		Status:   ptr(false),
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int32(3), updated.Quantity)
	assert.True(s.T(), decimal.RequireFromString("1999.99").Equal(updated.Price))
	assert.False(s.T(), updated.Status)
	assert.Equal(s.T(), created.Name, updated.Name)
}

func (s *ProductStoreSuite) TestUpdate_EmptyChangeSet_ReadsBackUnchanged() {
	created := s.createIphone()

	time.Sleep(10 * time.Millisecond)

	read, err := s.store.Update(s.ctx, created.ID, ProductChangeSet{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created, read)
	assert.True(s.T(), created.UpdatedAt.Equal(read.UpdatedAt))
}

func (s *ProductStoreSuite) TestUpdate_UnknownID_NotFound() {
	id := uuid.New()

	_, err := s.store.Update(s.ctx, id, ProductChangeSet{Status: ptr(false)})
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	assert.Contains(s.T(), err.Error(), "Product not found with filter: "+id.String())
}

func (s *ProductStoreSuite) TestDeleteByID_ThenFind_NotFound() {
	created := s.createIphone()

	require.NoError(s.T(), s.store.DeleteByID(s.ctx, created.ID))

	_, err := s.store.FindByID(s.ctx, created.ID)
	assert.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *ProductStoreSuite) TestDeleteByID_Twice_SecondNotFound() {
	created := s.createIphone()

	require.NoError(s.T(), s.store.DeleteByID(s.ctx, created.ID))

	err := s.store.DeleteByID(s.ctx, created.ID)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	assert.Contains(s.T(), err.Error(), created.ID.String())
}

func TestProductStoreSuite(t *testing.T) {
	if os.Getenv(skipIntegrationTests) != "" {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(ProductStoreSuite))
}
