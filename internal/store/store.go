package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"passprint-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetActiveProducts retrieves all active products ordered by quantity ascending,
// so the dashboard sees the most depleted products first
func (s *Store) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active = TRUE ORDER BY stock_quantity ASC, id ASC")
	return products, err
}

// UpdateStockTx overwrites a product's stock quantity and appends the history
// row in the same transaction. The product row is locked for the duration so
// old_quantity in the history entry always matches what was overwritten.
func (s *Store) UpdateStockTx(ctx context.Context, productID int64, newQuantity int, reason string) (*models.Product, int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var product models.Product
	err = tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 FOR UPDATE", productID)
	if err == sql.ErrNoRows {
		return nil, 0, sql.ErrNoRows
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock product: %w", err)
	}

	oldQuantity := product.StockQuantity

	_, err = tx.ExecContext(ctx,
		"UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2",
		newQuantity, productID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to update stock: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO stock_history (product_id, old_quantity, new_quantity, reason) VALUES ($1, $2, $3, $4)",
		productID, oldQuantity, newQuantity, reason)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to record stock history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	product.StockQuantity = newQuantity
	return &product, oldQuantity, nil
}
