// Package repository provides order persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/order/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// PostgreSQLOrderRepository handles order persistence for PostgreSQL
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQLOrderRepository
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{
		db: db,
	}
}

// Create inserts a new order with its line items
func (r *PostgreSQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	orderQuery := `INSERT INTO orders
				   (id, customer_id, merchant_id, status, recurrence_id, due_at, created_at, updated_at)
				   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(ctx, orderQuery,
		order.ID, order.CustomerID, order.MerchantID, order.Status,
		order.RecurrenceID, order.DueAt, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}

	itemQuery := `INSERT INTO order_items (id, order_id, description, quantity, unit_price)
				  VALUES ($1, $2, $3, $4, $5)`

	for _, item := range order.Items {
		_, err := querier.ExecContext(ctx, itemQuery,
			item.ID, order.ID, item.Description, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create order item")
		}
	}
	return nil
}

// GetByID retrieves an order and its line items by id
func (r *PostgreSQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	querier := database.GetTx(ctx, r.db)

	orderQuery := `SELECT id, customer_id, merchant_id, status, recurrence_id, due_at, created_at, updated_at
				   FROM orders WHERE id = $1`

	err := querier.QueryRowContext(ctx, orderQuery, id).Scan(
		&order.ID, &order.CustomerID, &order.MerchantID, &order.Status,
		&order.RecurrenceID, &order.DueAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	itemQuery := `SELECT id, description, quantity, unit_price
				  FROM order_items WHERE order_id = $1 ORDER BY id ASC`

	rows, err := querier.QueryContext(ctx, itemQuery, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list order items")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order item")
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate order items")
	}

	return &order, nil
}
