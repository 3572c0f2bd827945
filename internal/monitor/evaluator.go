package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
)

const (
	// EvaluationInterval is the default period between rule evaluations
	EvaluationInterval = 30 * time.Second

	OccupancyThreshold = 0.8
	OccupancyWindow    = 5 * time.Minute

	LateOrderMinutes = 30
	PeakHourOrders   = 10
	PeakHourWindow   = time.Hour

	PrepTimeAverageMinutes = 20
	PrepTimeMinOrders      = 3
	PrepTimeWindow         = 15 * time.Minute

	DailyGoal      = 500.0
	HighSaleAmount = 50.0
	HighSaleWindow = 5 * time.Minute

	dayKeyLayout = "2006-01-02"
)

// SnapshotFeed supplies the business state a tick evaluates
type SnapshotFeed interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Evaluator runs the Mesa, Tiempo and Balance rule families over a snapshot
type Evaluator struct {
	logger *zap.Logger
	loc    *time.Location
}

// NewEvaluator creates an evaluator. loc defines calendar days for the daily
// goal; nil means time.Local.
func NewEvaluator(loc *time.Location, logger *zap.Logger) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{
		logger: logger.Named("evaluator"),
		loc:    loc,
	}
}

// Evaluate returns the payloads of conditions that are true at now and not
// suppressed by an alert in existing. Everything it looks at is passed in, so
// a tick sees one consistent view.
func (e *Evaluator) Evaluate(now time.Time, snap model.Snapshot, settings model.Settings, existing []model.Alert) []model.Payload {
	if !settings.Enabled {
		return nil
	}

	l := newDedupLedger(existing, e.loc)
	var raised []model.Payload
	raise := func(p model.Payload) {
		raised = append(raised, p)
		l.record(p, now)
	}

	if settings.Categories.Mesa {
		e.evaluateMesa(now, snap.Tables, l, raise)
	}
	if settings.Categories.Tiempo {
		e.evaluateTiempo(now, snap.Orders, l, raise)
	}
	if settings.Categories.Balance {
		e.evaluateBalance(now, snap, l, raise)
	}

	e.logger.Debug("Rules evaluated",
		zap.Int("orders", len(snap.Orders)),
		zap.Int("inventory", len(snap.Inventory)),
		zap.Int("tables", len(snap.Tables)),
		zap.Int("existing", len(existing)),
		zap.Int("raised", len(raised)))

	return raised
}

func (e *Evaluator) evaluateMesa(now time.Time, tables []model.Table, l *dedupLedger, raise func(model.Payload)) {
	total := len(tables)
	if total == 0 {
		return
	}

	busy := 0
	for _, t := range tables {
		if t.Status == model.TableStatusOccupied || t.Status == model.TableStatusReserved {
			busy++
		}
	}

	rate := float64(busy) / float64(total)
	if rate < OccupancyThreshold || l.within(model.AlertTypeOccupancyHigh, now, OccupancyWindow) {
		return
	}
	raise(model.OccupancyHigh{
		Percentage: fmt.Sprintf("%.1f", rate*100),
		Occupied:   busy,
		Total:      total,
	})
}

func (e *Evaluator) evaluateTiempo(now time.Time, orders []model.Order, l *dedupLedger, raise func(model.Payload)) {
	hourAgo := now.Add(-PeakHourWindow)
	recent := 0
	preparing := 0
	prepMinutes := 0

	for _, o := range orders {
		if o.CreatedAt.After(hourAgo) {
			recent++
		}
		if o.Status != model.OrderStatusPreparing {
			continue
		}

		elapsed := int(now.Sub(o.CreatedAt) / time.Minute)
		preparing++
		prepMinutes += elapsed

		if elapsed > LateOrderMinutes && !l.hasKey(model.AlertTypeOrderLate, o.ID) {
			raise(model.OrderLate{
				OrderID:        o.ID,
				MinutesElapsed: elapsed,
				TableNumber:    o.TableID,
				CustomerName:   o.CustomerName,
			})
		}
	}

	if recent >= PeakHourOrders && !l.within(model.AlertTypePeakHour, now, PeakHourWindow) {
		raise(model.PeakHour{
			OrdersCount: recent,
			Hour:        now.In(e.loc).Hour(),
		})
	}

	if preparing >= PrepTimeMinOrders {
		avg := prepMinutes / preparing
		if avg > PrepTimeAverageMinutes && !l.within(model.AlertTypePrepTimeHigh, now, PrepTimeWindow) {
			raise(model.PrepTimeHigh{
				AverageMinutes: avg,
				OrdersCount:    preparing,
			})
		}
	}
}

func (e *Evaluator) evaluateBalance(now time.Time, snap model.Snapshot, l *dedupLedger, raise func(model.Payload)) {
	for _, item := range snap.Inventory {
		switch {
		case item.Stock <= 0:
			if !l.hasKey(model.AlertTypeStockOut, item.ID) {
				raise(model.StockOut{
					ProductID:   item.ID,
					ProductName: item.Name,
				})
			}
		case item.Stock <= item.Minimum():
			if !l.hasKey(model.AlertTypeStockLow, item.ID) {
				raise(model.StockLow{
					ProductID:    item.ID,
					ProductName:  item.Name,
					CurrentStock: item.Stock,
					MinStock:     item.Minimum(),
				})
			}
		}
	}

	today := dayKey(now, e.loc)
	saleCutoff := now.Add(-HighSaleWindow)
	revenue := 0.0

	for _, o := range snap.Orders {
		if o.Status != model.OrderStatusCompleted {
			continue
		}
		if dayKey(o.CreatedAt, e.loc) == today {
			revenue += o.Total
		}
		if o.CreatedAt.After(saleCutoff) && o.Total > HighSaleAmount && !l.hasKey(model.AlertTypeHighSale, o.ID) {
			raise(model.HighSale{
				OrderID:      o.ID,
				Amount:       o.Total,
				TableNumber:  o.TableID,
				CustomerName: o.CustomerName,
			})
		}
	}

	if revenue >= DailyGoal && !l.sameDay(model.AlertTypeDailyGoalMet, now) {
		raise(model.DailyGoalMet{
			Amount: revenue,
			Day:    today,
		})
	}
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// dedupLedger answers "does an equivalent alert already exist" for one tick.
// It is built from the store view taken at the start of the tick and extended
// with what the tick itself raises.
type dedupLedger struct {
	loc   *time.Location
	keyed map[model.AlertType]map[string]struct{}
	seen  map[model.AlertType][]time.Time
}

func newDedupLedger(existing []model.Alert, loc *time.Location) *dedupLedger {
	l := &dedupLedger{
		loc:   loc,
		keyed: make(map[model.AlertType]map[string]struct{}),
		seen:  make(map[model.AlertType][]time.Time),
	}
	for _, a := range existing {
		l.add(a.Type, a.Payload, a.Timestamp)
	}
	return l
}

func (l *dedupLedger) record(p model.Payload, now time.Time) {
	l.add(p.Type(), p, now)
}

func (l *dedupLedger) add(t model.AlertType, p model.Payload, ts time.Time) {
	l.seen[t] = append(l.seen[t], ts)
	if p == nil {
		return
	}
	if key := model.EntityKey(p); key != "" {
		if l.keyed[t] == nil {
			l.keyed[t] = make(map[string]struct{})
		}
		l.keyed[t][key] = struct{}{}
	}
}

// hasKey reports whether an alert of type t exists for the entity key
func (l *dedupLedger) hasKey(t model.AlertType, key string) bool {
	_, ok := l.keyed[t][key]
	return ok
}

// within reports whether an alert of type t is younger than window
func (l *dedupLedger) within(t model.AlertType, now time.Time, window time.Duration) bool {
	for _, ts := range l.seen[t] {
		if now.Sub(ts) < window {
			return true
		}
	}
	return false
}

// sameDay reports whether an alert of type t was raised on now's calendar day
func (l *dedupLedger) sameDay(t model.AlertType, now time.Time) bool {
	today := dayKey(now, l.loc)
	for _, ts := range l.seen[t] {
		if dayKey(ts, l.loc) == today {
			return true
		}
	}
	return false
}
