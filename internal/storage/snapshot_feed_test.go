package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/t77yq/floorwatch/internal/model"
)

func setupSQLiteFeed(t *testing.T) *SQLFeed {
	t.Helper()

	ctx := context.Background()
	feed, err := OpenSQLFeed(ctx, "sqlite3", filepath.Join(t.TempDir(), "floor.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { feed.Close() })

	require.NoError(t, feed.InitSchema(ctx))
	return feed
}

func TestSQLFeed_SQLite(t *testing.T) {
	feed := setupSQLiteFeed(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 10, 13, 25, 0, 0, time.UTC)

	_, err := feed.db.ExecContext(ctx,
		`INSERT INTO orders (id, status, created_at, table_id, customer_name, total) VALUES (?, ?, ?, ?, ?, ?)`,
		"o-1", "preparando", created, 3, "Luis", 42.5)
	require.NoError(t, err)
	_, err = feed.db.ExecContext(ctx,
		`INSERT INTO orders (id, status, created_at) VALUES (?, ?, ?)`,
		"o-2", "completed", created)
	require.NoError(t, err)

	_, err = feed.db.ExecContext(ctx, `INSERT INTO inventory (id, name, stock, min_stock) VALUES (?, ?, ?, ?)`, "p-1", "Queso", 0, 2)
	require.NoError(t, err)
	_, err = feed.db.ExecContext(ctx, `INSERT INTO inventory (id, name, stock) VALUES (?, ?, ?)`, "p-2", "Pan", 7)
	require.NoError(t, err)

	_, err = feed.db.ExecContext(ctx, `INSERT INTO tables (id, status) VALUES (1, 'ocupada'), (2, 'disponible'), (3, 'reserved')`)
	require.NoError(t, err)

	snap, err := feed.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Orders, 2)
	byID := map[string]model.Order{}
	for _, o := range snap.Orders {
		byID[o.ID] = o
	}
	assert.Equal(t, model.OrderStatusPreparing, byID["o-1"].Status)
	assert.True(t, created.Equal(byID["o-1"].CreatedAt))
	assert.Equal(t, 3, byID["o-1"].TableID)
	assert.Equal(t, "Luis", byID["o-1"].CustomerName)
	assert.Equal(t, 42.5, byID["o-1"].Total)
	assert.Equal(t, model.OrderStatusCompleted, byID["o-2"].Status)
	assert.Equal(t, 0, byID["o-2"].TableID)
	assert.Equal(t, 0.0, byID["o-2"].Total)

	require.Len(t, snap.Inventory, 2)
	for _, item := range snap.Inventory {
		switch item.ID {
		case "p-1":
			require.NotNil(t, item.MinStock)
			assert.Equal(t, 2, item.Minimum())
		case "p-2":
			assert.Nil(t, item.MinStock)
			assert.Equal(t, model.DefaultMinStock, item.Minimum())
		}
	}

	require.Len(t, snap.Tables, 3)
	statuses := map[int]model.TableStatus{}
	for _, tb := range snap.Tables {
		statuses[tb.ID] = tb.Status
	}
	assert.Equal(t, model.TableStatusOccupied, statuses[1])
	assert.Equal(t, model.TableStatusAvailable, statuses[2])
	assert.Equal(t, model.TableStatusReserved, statuses[3])
}

func TestSQLFeed_EmptyDatabase(t *testing.T) {
	feed := setupSQLiteFeed(t)

	snap, err := feed.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Orders)
	assert.Empty(t, snap.Inventory)
	assert.Empty(t, snap.Tables)
}

func setupMockFeed(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SQLFeed) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewSQLFeed(db, zap.NewNop())
}

func TestSQLFeed_Snapshot_Mock(t *testing.T) {
	db, mock, feed := setupMockFeed(t)
	defer db.Close()

	created := time.Date(2024, 5, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, status, created_at, table_id, customer_name, total FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "table_id", "customer_name", "total"}).
			AddRow("101", "listo", created, int64(4), "Eva", 88.0).
			AddRow("102", "pendiente", created, nil, nil, nil))
	mock.ExpectQuery(`SELECT id, name, stock, min_stock FROM inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "min_stock"}).
			AddRow("p-1", "Queso", int64(3), int64(5)).
			AddRow("p-2", nil, int64(0), nil))
	mock.ExpectQuery(`SELECT id, status FROM tables`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(1), "ocupada"))

	snap, err := feed.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Orders, 2)
	assert.Equal(t, model.Order{
		ID:           "101",
		Status:       model.OrderStatusReady,
		CreatedAt:    created,
		TableID:      4,
		CustomerName: "Eva",
		Total:        88,
	}, snap.Orders[0])
	assert.Equal(t, model.OrderStatusPending, snap.Orders[1].Status)
	assert.Equal(t, "", snap.Orders[1].CustomerName)

	require.Len(t, snap.Inventory, 2)
	assert.Equal(t, 5, snap.Inventory[0].Minimum())
	assert.Equal(t, "", snap.Inventory[1].Name)
	assert.Nil(t, snap.Inventory[1].MinStock)

	require.Len(t, snap.Tables, 1)
	assert.Equal(t, model.Table{ID: 1, Status: model.TableStatusOccupied}, snap.Tables[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLFeed_Snapshot_QueryError(t *testing.T) {
	db, mock, feed := setupMockFeed(t)
	defer db.Close()

	mock.ExpectQuery(`FROM orders`).WillReturnError(errors.New("connection reset"))

	_, err := feed.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query orders")
	assert.Contains(t, err.Error(), "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLFeed_Snapshot_ScanError(t *testing.T) {
	db, mock, feed := setupMockFeed(t)
	defer db.Close()

	mock.ExpectQuery(`FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "table_id", "customer_name", "total"}).
			AddRow("101", "listo", "not a time", nil, nil, nil))

	_, err := feed.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan order")
}

func TestOpenSQLFeed_BadDriver(t *testing.T) {
	_, err := OpenSQLFeed(context.Background(), "oracle", "", zap.NewNop())
	assert.Error(t, err)
}
