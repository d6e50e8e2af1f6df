package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

// MySQLAdapter persists orders, their lines and their routes. Every SaveOrder
// is one transaction, so the durable write is atomic per order.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// RunMigrations applies the SQL migrations under migrationsPath.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) SaveOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (owner_key, status, created_at)
		VALUES (?, ?, ?)`,
		order.Owner, order.Status, order.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Order{}, fmt.Errorf("order id: %w", err)
	}

	for i, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, product_name, quantity)
			VALUES (?, ?, ?, ?)`,
			id, i, line.ProductName, line.Quantity,
		)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert order line: %w", err)
		}
	}

	for i, point := range order.Route {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_route (order_id, position, x, y)
			VALUES (?, ?, ?, ?)`,
			id, i, point.X, point.Y,
		)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert route point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit: %w", err)
	}

	order.ID = id
	return order, nil
}

func (m *MySQLAdapter) FindOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, owner_key, status, created_at
		FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.Owner, &order.Status, &order.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if order.Lines, err = m.orderLines(ctx, id); err != nil {
		return nil, err
	}
	if order.Route, err = m.orderRoute(ctx, id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *MySQLAdapter) orderLines(ctx context.Context, id int64) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_name, quantity
		FROM order_lines WHERE order_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductName, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (m *MySQLAdapter) orderRoute(ctx context.Context, id int64) ([]domain.Point, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT x, y
		FROM order_route WHERE order_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query order route: %w", err)
	}
	defer rows.Close()

	route := []domain.Point{}
	for rows.Next() {
		var point domain.Point
		if err := rows.Scan(&point.X, &point.Y); err != nil {
			return nil, fmt.Errorf("scan route point: %w", err)
		}
		route = append(route, point)
	}
	return route, rows.Err()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, owner string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_key, status, created_at
		FROM orders WHERE owner_key = ? ORDER BY id DESC`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.Owner, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
