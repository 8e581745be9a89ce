package repository

import (
	"context"
	"sync"
	"testing"

	"depot-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// A single connection keeps the in-memory database shared between
	// goroutines in concurrency tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.User{}, &model.Product{}, &model.StockEntry{}, &model.Sale{})
	require.NoError(t, err, "failed to migrate tables")

	return db
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{
		Name:          "Widget",
		Type:          "hardware",
		PurchasePrice: 5,
		SalePrice:     10,
		Stock:         0,
		AlertLevel:    2,
	}

	err := repo.Create(ctx, product)
	require.NoError(t, err)
	assert.NotZero(t, product.ID, "ID is not set")

	found, err := repo.FindByName(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	byID, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", byID.Name)
}

func TestProductRepository_FindByName_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)

	_, err := repo.FindByName(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_IncrementStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{Name: "Widget", SalePrice: 10, Stock: 5}
	require.NoError(t, repo.Create(ctx, product))

	require.NoError(t, repo.IncrementStock(ctx, product.ID, 20))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, found.Stock)
}

func TestProductRepository_IncrementStock_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{Name: "Widget", SalePrice: 10, Stock: 0}
	require.NoError(t, repo.Create(ctx, product))

	const workers = 10
	const delta = 3

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementStock(ctx, product.ID, delta))
		}()
	}
	wg.Wait()

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*delta, found.Stock, "concurrent increments must not lose updates")
}

func TestProductRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Product{Name: "Widget", SalePrice: 10}))
	require.NoError(t, repo.Create(ctx, &model.Product{Name: "Gadget", SalePrice: 15}))

	all, total, err := repo.List(ctx, 1, 20, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	filtered, total, err := repo.List(ctx, 1, 20, "Wid")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Widget", filtered[0].Name)
}

func TestProductRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{Name: "Widget", SalePrice: 10}
	require.NoError(t, repo.Create(ctx, product))

	require.NoError(t, repo.Delete(ctx, product.ID))

	_, err := repo.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
