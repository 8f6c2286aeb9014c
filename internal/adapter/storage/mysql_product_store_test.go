package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/sarismart-cart/internal/adapter/idgen"
	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/sarismart?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMySQLProductStore_GetProduct(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	store := NewMySQLProductStore(db, idgen.UUID{})
	storeID := "test-store-" + uuid.NewString()

	require.NoError(t, store.UpsertProduct(ctx, domain.Product{
		ID: "p1", StoreID: storeID, Name: "Sardines", Price: decimal.RequireFromString("10.00"), Stock: 5,
	}))
	defer db.ExecContext(ctx, `DELETE FROM products WHERE store_id = ?`, storeID)

	p, err := store.GetProduct(ctx, "p1", storeID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Sardines", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, 5, p.Stock)
}

func TestMySQLProductStore_GetProduct_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	store := NewMySQLProductStore(db, idgen.UUID{})

	p, err := store.GetProduct(context.Background(), "nonexistent", "nonexistent-store")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMySQLProductStore_SetStock(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	store := NewMySQLProductStore(db, idgen.UUID{})
	storeID := "test-store-" + uuid.NewString()

	require.NoError(t, store.UpsertProduct(ctx, domain.Product{
		ID: "p1", StoreID: storeID, Price: decimal.NewFromInt(1), Stock: 5,
	}))
	defer db.ExecContext(ctx, `DELETE FROM products WHERE store_id = ?`, storeID)

	require.NoError(t, store.SetStock(ctx, "p1", storeID, 3))

	var stock, version int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT stock, version FROM products WHERE id = 'p1' AND store_id = ?`, storeID,
	).Scan(&stock, &version))
	assert.Equal(t, 3, stock)
	assert.Equal(t, 1, version)

	err := store.SetStock(ctx, "missing", storeID, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMySQLProductStore_SetStockLastWriteWins(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	store := NewMySQLProductStore(db, idgen.UUID{})
	storeID := "test-store-" + uuid.NewString()

	require.NoError(t, store.UpsertProduct(ctx, domain.Product{
		ID: "p1", StoreID: storeID, Price: decimal.NewFromInt(1), Stock: 5,
	}))
	defer db.ExecContext(ctx, `DELETE FROM products WHERE store_id = ?`, storeID)

	// Both writers read stock 5; neither is rejected.
	require.NoError(t, store.SetStock(ctx, "p1", storeID, 4))
	require.NoError(t, store.SetStock(ctx, "p1", storeID, 2))
	require.NoError(t, store.SetStock(ctx, "p1", storeID, 2))

	var stock, version int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT stock, version FROM products WHERE id = 'p1' AND store_id = ?`, storeID,
	).Scan(&stock, &version))
	assert.Equal(t, 2, stock)
	assert.Equal(t, 3, version)
}

func TestMySQLProductStore_RecordSale(t *testing.T) {
	db := getMySQLDB(t)
	ctx := context.Background()
	store := NewMySQLProductStore(db, idgen.UUID{})
	storeID := "test-store-" + uuid.NewString()
	defer db.ExecContext(ctx, `DELETE FROM sales WHERE store_id = ?`, storeID)

	sale, err := store.RecordSale(ctx, storeID, decimal.RequireFromString("25.00"), []domain.SaleItem{
		{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: "p2", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	})
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, 2, sale.ItemCount)

	var total decimal.Decimal
	require.NoError(t, db.QueryRowContext(ctx, `SELECT total FROM sales WHERE id = ?`, sale.ID).Scan(&total))
	assert.True(t, total.Equal(decimal.RequireFromString("25")))
}
