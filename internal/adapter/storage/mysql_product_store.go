package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/port"
)

var ErrProductNotFound = errors.New("product not found")

// MySQLProductStore is a port.ProductService backed by the products and
// sales tables.
type MySQLProductStore struct {
	db  *sql.DB
	ids port.IDGenerator
}

func NewMySQLProductStore(db *sql.DB, ids port.IDGenerator) *MySQLProductStore {
	return &MySQLProductStore{db: db, ids: ids}
}

func (m *MySQLProductStore) GetProduct(ctx context.Context, productID, storeID string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, price, stock
		FROM products WHERE id = ? AND store_id = ?`, productID, storeID,
	).Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// SetStock overwrites stock unconditionally. version only counts writes.
func (m *MySQLProductStore) SetStock(ctx context.Context, productID, storeID string, stock int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND store_id = ?`,
		stock, productID, storeID,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update stock of %s: %w", productID, ErrProductNotFound)
	}
	return nil
}

// RecordSale stores the sale header only; line items are not persisted.
func (m *MySQLProductStore) RecordSale(ctx context.Context, storeID string, total decimal.Decimal, items []domain.SaleItem) (*domain.Sale, error) {
	sale := domain.Sale{
		ID:        m.ids.NewID(),
		StoreID:   storeID,
		Total:     total,
		ItemCount: len(items),
		CreatedAt: time.Now().UTC(),
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sales (id, store_id, total, item_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sale.ID, sale.StoreID, sale.Total, sale.ItemCount, sale.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}
	return &sale, nil
}

// UpsertProduct seeds or replaces a product row.
func (m *MySQLProductStore) UpsertProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, store_id, name, price, stock, version)
		VALUES (?, ?, ?, ?, ?, 0)
		ON DUPLICATE KEY UPDATE name = VALUES(name), price = VALUES(price),
			stock = VALUES(stock), version = version + 1`,
		p.ID, p.StoreID, p.Name, p.Price, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}
