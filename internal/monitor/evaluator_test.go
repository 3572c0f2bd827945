package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/t77yq/floorwatch/internal/model"
)

var evalNow = time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)

func newTestEvaluator(t *testing.T) *Evaluator {
	return NewEvaluator(time.UTC, zaptest.NewLogger(t))
}

func tables(occupied, reserved, total int) []model.Table {
	var out []model.Table
	for i := 1; i <= total; i++ {
		status := model.TableStatusAvailable
		switch {
		case i <= occupied:
			status = model.TableStatusOccupied
		case i <= occupied+reserved:
			status = model.TableStatusReserved
		}
		out = append(out, model.Table{ID: i, Status: status})
	}
	return out
}

func existingAlert(p model.Payload, ts time.Time) model.Alert {
	c := Classify(p)
	return model.Alert{
		ID:        "existing-" + string(p.Type()),
		Type:      c.Type,
		Timestamp: ts,
		Payload:   p,
		Category:  c.Category,
		Priority:  c.Priority,
	}
}

func intPtr(v int) *int { return &v }

func TestEvaluator_OccupancyHigh(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{Tables: tables(9, 0, 10)}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)

	require.Len(t, raised, 1)
	assert.Equal(t, model.OccupancyHigh{Percentage: "90.0", Occupied: 9, Total: 10}, raised[0])
}

func TestEvaluator_OccupancyCountsReserved(t *testing.T) {
	e := newTestEvaluator(t)

	raised := e.Evaluate(evalNow, model.Snapshot{Tables: tables(6, 2, 10)}, model.DefaultSettings(), nil)
	require.Len(t, raised, 1)
	assert.Equal(t, "80.0", raised[0].(model.OccupancyHigh).Percentage)

	raised = e.Evaluate(evalNow, model.Snapshot{Tables: tables(6, 1, 10)}, model.DefaultSettings(), nil)
	assert.Empty(t, raised)

	raised = e.Evaluate(evalNow, model.Snapshot{}, model.DefaultSettings(), nil)
	assert.Empty(t, raised)
}

func TestEvaluator_OccupancyWindow(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{Tables: tables(9, 0, 10)}
	prev := model.OccupancyHigh{Percentage: "90.0", Occupied: 9, Total: 10}

	// Suppressed while the previous alert is younger than the window
	existing := []model.Alert{existingAlert(prev, evalNow.Add(-4*time.Minute))}
	assert.Empty(t, e.Evaluate(evalNow, snap, model.DefaultSettings(), existing))

	existing = []model.Alert{existingAlert(prev, evalNow.Add(-OccupancyWindow))}
	assert.Len(t, e.Evaluate(evalNow, snap, model.DefaultSettings(), existing), 1)
}

func TestEvaluator_OrderLate(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-35 * time.Minute), TableID: 3, CustomerName: "Luis"},
			{ID: "o-2", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-30 * time.Minute)},
			{ID: "o-3", Status: model.OrderStatusPending, CreatedAt: evalNow.Add(-50 * time.Minute)},
		},
	}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)

	require.Len(t, raised, 1)
	assert.Equal(t, model.OrderLate{
		OrderID:        "o-1",
		MinutesElapsed: 35,
		TableNumber:    3,
		CustomerName:   "Luis",
	}, raised[0])

	// The same order is not raised again while its alert exists
	existing := []model.Alert{existingAlert(raised[0], evalNow)}
	assert.Empty(t, e.Evaluate(evalNow.Add(10*time.Second), snap, model.DefaultSettings(), existing))
}

func TestEvaluator_PeakHour(t *testing.T) {
	e := newTestEvaluator(t)
	var orders []model.Order
	for i := 0; i < PeakHourOrders; i++ {
		orders = append(orders, model.Order{
			ID:        string(rune('a' + i)),
			Status:    model.OrderStatusPending,
			CreatedAt: evalNow.Add(-time.Duration(i+1) * time.Minute),
		})
	}

	raised := e.Evaluate(evalNow, model.Snapshot{Orders: orders}, model.DefaultSettings(), nil)
	require.Len(t, raised, 1)
	assert.Equal(t, model.PeakHour{OrdersCount: PeakHourOrders, Hour: 14}, raised[0])

	existing := []model.Alert{existingAlert(raised[0], evalNow.Add(-59*time.Minute))}
	assert.Empty(t, e.Evaluate(evalNow, model.Snapshot{Orders: orders}, model.DefaultSettings(), existing))

	raised = e.Evaluate(evalNow, model.Snapshot{Orders: orders[:PeakHourOrders-1]}, model.DefaultSettings(), nil)
	assert.Empty(t, raised)
}

func TestEvaluator_PrepTimeHigh(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-25 * time.Minute)},
			{ID: "o-2", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-22 * time.Minute)},
			{ID: "o-3", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-21 * time.Minute)},
		},
	}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)
	require.Len(t, raised, 1)
	assert.Equal(t, model.PrepTimeHigh{AverageMinutes: 22, OrdersCount: 3}, raised[0])

	// Two slow orders are not enough
	snap.Orders = snap.Orders[:2]
	assert.Empty(t, e.Evaluate(evalNow, snap, model.DefaultSettings(), nil))
}

func TestEvaluator_Stock(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Inventory: []model.InventoryItem{
			{ID: "p-1", Name: "Queso", Stock: 0},
			{ID: "p-2", Name: "Pan", Stock: 5},
			{ID: "p-3", Name: "Tomate", Stock: 6},
			{ID: "p-4", Name: "Leche", Stock: 8, MinStock: intPtr(10)},
		},
	}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)

	require.Len(t, raised, 3)
	assert.Equal(t, model.StockOut{ProductID: "p-1", ProductName: "Queso"}, raised[0])
	assert.Equal(t, model.StockLow{ProductID: "p-2", ProductName: "Pan", CurrentStock: 5, MinStock: model.DefaultMinStock}, raised[1])
	assert.Equal(t, model.StockLow{ProductID: "p-4", ProductName: "Leche", CurrentStock: 8, MinStock: 10}, raised[2])
}

func TestEvaluator_StockLowIndependentOfStockOut(t *testing.T) {
	e := newTestEvaluator(t)
	existing := []model.Alert{existingAlert(model.StockOut{ProductID: "p-1", ProductName: "Queso"}, evalNow.Add(-time.Minute))}
	snap := model.Snapshot{
		Inventory: []model.InventoryItem{{ID: "p-1", Name: "Queso", Stock: 3, MinStock: intPtr(5)}},
	}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), existing)

	require.Len(t, raised, 1)
	assert.Equal(t, model.AlertTypeStockLow, raised[0].Type())
}

func TestEvaluator_HighSale(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-2 * time.Minute), Total: 120, TableID: 5},
			{ID: "o-2", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-2 * time.Minute), Total: 50},
			{ID: "o-3", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-6 * time.Minute), Total: 90},
			{ID: "o-4", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-time.Minute), Total: 300},
		},
	}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)

	require.Len(t, raised, 1)
	assert.Equal(t, model.HighSale{OrderID: "o-1", Amount: 120, TableNumber: 5}, raised[0])

	existing := []model.Alert{existingAlert(raised[0], evalNow)}
	assert.Empty(t, e.Evaluate(evalNow.Add(30*time.Second), snap, model.DefaultSettings(), existing))
}

func TestEvaluator_DailyGoal(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-3 * time.Hour), Total: 300},
			{ID: "o-2", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-2 * time.Hour), Total: 220},
			// Yesterday's sales don't count
			{ID: "o-3", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-24 * time.Hour), Total: 1000},
			{ID: "o-4", Status: model.OrderStatusCanceled, CreatedAt: evalNow.Add(-time.Hour * 2), Total: 1000},
		},
	}

	raised := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)
	require.Len(t, raised, 1)
	assert.Equal(t, model.DailyGoalMet{Amount: 520, Day: "2024-05-10"}, raised[0])

	// Once per calendar day
	existing := []model.Alert{existingAlert(raised[0], evalNow.Add(-5*time.Hour))}
	assert.Empty(t, e.Evaluate(evalNow, snap, model.DefaultSettings(), existing))

	existing = []model.Alert{existingAlert(raised[0], evalNow.Add(-24*time.Hour))}
	assert.Len(t, e.Evaluate(evalNow, snap, model.DefaultSettings(), existing), 1)
}

func TestEvaluator_DailyGoalUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	e := NewEvaluator(loc, zaptest.NewLogger(t))

	// 02:00 UTC is still the previous day at UTC-5
	now := time.Date(2024, 5, 11, 2, 0, 0, 0, time.UTC)
	snap := model.Snapshot{
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusCompleted, CreatedAt: time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC), Total: 600},
		},
	}

	raised := e.Evaluate(now, snap, model.DefaultSettings(), nil)
	require.Len(t, raised, 1)
	assert.Equal(t, "2024-05-10", raised[0].(model.DailyGoalMet).Day)
}

func TestEvaluator_CategoryDisabled(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusCompleted, CreatedAt: evalNow.Add(-time.Minute), Total: 900},
		},
		Inventory: []model.InventoryItem{{ID: "p-1", Name: "Queso", Stock: 0}},
	}
	settings := model.DefaultSettings()
	settings.Categories.Balance = false

	raised := e.Evaluate(evalNow, snap, settings, nil)

	for _, p := range raised {
		assert.NotEqual(t, model.CategoryBalance, Classify(p).Category)
	}
	assert.Empty(t, raised)
}

func TestEvaluator_Disabled(t *testing.T) {
	e := newTestEvaluator(t)
	settings := model.DefaultSettings()
	settings.Enabled = false

	raised := e.Evaluate(evalNow, model.Snapshot{Tables: tables(10, 0, 10)}, settings, nil)
	assert.Nil(t, raised)
}

func TestEvaluator_Idempotent(t *testing.T) {
	e := newTestEvaluator(t)
	snap := model.Snapshot{
		Tables: tables(9, 0, 10),
		Orders: []model.Order{
			{ID: "o-1", Status: model.OrderStatusPreparing, CreatedAt: evalNow.Add(-40 * time.Minute)},
		},
		Inventory: []model.InventoryItem{{ID: "p-1", Name: "Queso", Stock: 0}},
	}

	first := e.Evaluate(evalNow, snap, model.DefaultSettings(), nil)
	require.Len(t, first, 3)

	var existing []model.Alert
	for _, p := range first {
		existing = append(existing, existingAlert(p, evalNow))
	}
	assert.Empty(t, e.Evaluate(evalNow, snap, model.DefaultSettings(), existing))
}
