package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
)

const (
	ordersQuery    = `SELECT id, status, created_at, table_id, customer_name, total FROM orders`
	inventoryQuery = `SELECT id, name, stock, min_stock FROM inventory`
	tablesQuery    = `SELECT id, status FROM tables`
)

// SQLFeed reads the orders, inventory and tables the monitor evaluates from
// a SQL database. The monitor never writes through it.
type SQLFeed struct {
	logger *zap.Logger
	db     *sql.DB
}

// OpenSQLFeed opens a database with the given driver ("sqlite3" or
// "postgres") and verifies the connection
func OpenSQLFeed(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLFeed, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewSQLFeed(db, logger), nil
}

// NewSQLFeed creates a feed over an open database
func NewSQLFeed(db *sql.DB, logger *zap.Logger) *SQLFeed {
	return &SQLFeed{
		logger: logger.Named("snapshot-feed"),
		db:     db,
	}
}

// InitSchema creates the tables the feed reads if they don't exist
func (f *SQLFeed) InitSchema(ctx context.Context) error {
	_, err := f.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			table_id INTEGER,
			customer_name TEXT,
			total REAL
		);
		CREATE TABLE IF NOT EXISTS inventory (
			id TEXT PRIMARY KEY,
			name TEXT,
			stock INTEGER NOT NULL,
			min_stock INTEGER
		);
		CREATE TABLE IF NOT EXISTS tables (
			id INTEGER PRIMARY KEY,
			status TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Snapshot reads the full business state for one evaluation
func (f *SQLFeed) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error

	if snap.Orders, err = f.orders(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Inventory, err = f.inventory(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Tables, err = f.tables(ctx); err != nil {
		return model.Snapshot{}, err
	}

	f.logger.Debug("Snapshot loaded",
		zap.Int("orders", len(snap.Orders)),
		zap.Int("inventory", len(snap.Inventory)),
		zap.Int("tables", len(snap.Tables)))

	return snap, nil
}

func (f *SQLFeed) orders(ctx context.Context) ([]model.Order, error) {
	rows, err := f.db.QueryContext(ctx, ordersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var (
			o            model.Order
			status       string
			createdAt    time.Time
			tableID      sql.NullInt64
			customerName sql.NullString
			total        sql.NullFloat64
		)
		if err := rows.Scan(&o.ID, &status, &createdAt, &tableID, &customerName, &total); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = model.ParseOrderStatus(status)
		o.CreatedAt = createdAt
		o.TableID = int(tableID.Int64)
		o.CustomerName = customerName.String
		o.Total = total.Float64
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

func (f *SQLFeed) inventory(ctx context.Context) ([]model.InventoryItem, error) {
	rows, err := f.db.QueryContext(ctx, inventoryQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var (
			item     model.InventoryItem
			name     sql.NullString
			minStock sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &name, &item.Stock, &minStock); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		item.Name = name.String
		if minStock.Valid {
			m := int(minStock.Int64)
			item.MinStock = &m
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return items, nil
}

func (f *SQLFeed) tables(ctx context.Context) ([]model.Table, error) {
	rows, err := f.db.QueryContext(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []model.Table
	for rows.Next() {
		var (
			t      model.Table
			status string
		)
		if err := rows.Scan(&t.ID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		t.Status = model.ParseTableStatus(status)
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return tables, nil
}

// Close closes the underlying database
func (f *SQLFeed) Close() error {
	return f.db.Close()
}
