package model

// Payload is the type-specific body of an alert. Every AlertType has its own
// payload struct; Generic carries types this build does not know about.
type Payload interface {
	Type() AlertType
	isPayload()
}

// TableOccupied is raised when a party is seated
type TableOccupied struct {
	TableNumber  int    `json:"table_number"`
	CustomerName string `json:"customer_name,omitempty"`
}

// TableReleased is raised when a table becomes free again
type TableReleased struct {
	TableNumber int `json:"table_number"`
}

// TableMaintenance is raised when a table is taken out of service
type TableMaintenance struct {
	TableNumber int    `json:"table_number"`
	Reason      string `json:"reason,omitempty"`
}

// OccupancyHigh reports the dining room filling up
type OccupancyHigh struct {
	Percentage string `json:"percentage"`
	Occupied   int    `json:"occupied"`
	Total      int    `json:"total"`
}

// OrderLate reports an order stuck in preparation
type OrderLate struct {
	OrderID        string `json:"order_id"`
	MinutesElapsed int    `json:"minutes_elapsed"`
	TableNumber    int    `json:"table_number,omitempty"`
	CustomerName   string `json:"customer_name,omitempty"`
}

// OrderReady reports an order waiting to be served
type OrderReady struct {
	OrderID      string `json:"order_id"`
	TableNumber  int    `json:"table_number,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// PrepTimeHigh reports a slow kitchen
type PrepTimeHigh struct {
	AverageMinutes int `json:"average_minutes"`
	OrdersCount    int `json:"orders_count"`
}

// PeakHour reports a rush of incoming orders
type PeakHour struct {
	OrdersCount int `json:"orders_count"`
	Hour        int `json:"hour"`
}

// StockLow reports an inventory item at or under its minimum
type StockLow struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
}

// StockOut reports an inventory item with nothing left
type StockOut struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
}

// HighSale reports a large completed order
type HighSale struct {
	OrderID      string  `json:"order_id"`
	Amount       float64 `json:"amount"`
	TableNumber  int     `json:"table_number,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
}

// DailyGoalMet reports today's revenue reaching the goal. Day is the
// calendar day key the alert was raised for.
type DailyGoalMet struct {
	Amount float64 `json:"amount"`
	Day    string  `json:"day"`
}

// Generic carries an alert type received from the push path that has no
// dedicated payload.
type Generic struct {
	Kind   AlertType      `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (TableOccupied) Type() AlertType    { return AlertTypeTableOccupied }
func (TableReleased) Type() AlertType    { return AlertTypeTableReleased }
func (TableMaintenance) Type() AlertType { return AlertTypeTableMaintenance }
func (OccupancyHigh) Type() AlertType    { return AlertTypeOccupancyHigh }
func (OrderLate) Type() AlertType        { return AlertTypeOrderLate }
func (OrderReady) Type() AlertType       { return AlertTypeOrderReady }
func (PrepTimeHigh) Type() AlertType     { return AlertTypePrepTimeHigh }
func (PeakHour) Type() AlertType         { return AlertTypePeakHour }
func (StockLow) Type() AlertType         { return AlertTypeStockLow }
func (StockOut) Type() AlertType         { return AlertTypeStockOut }
func (HighSale) Type() AlertType         { return AlertTypeHighSale }
func (DailyGoalMet) Type() AlertType     { return AlertTypeDailyGoalMet }
func (g Generic) Type() AlertType        { return g.Kind }

func (TableOccupied) isPayload()    {}
func (TableReleased) isPayload()    {}
func (TableMaintenance) isPayload() {}
func (OccupancyHigh) isPayload()    {}
func (OrderLate) isPayload()        {}
func (OrderReady) isPayload()       {}
func (PrepTimeHigh) isPayload()     {}
func (PeakHour) isPayload()         {}
func (StockLow) isPayload()         {}
func (StockOut) isPayload()         {}
func (HighSale) isPayload()         {}
func (DailyGoalMet) isPayload()     {}
func (Generic) isPayload()          {}

// EntityKey returns the id of the business entity a per-entity alert is
// about (order or product). Aggregate alerts return "".
func EntityKey(p Payload) string {
	switch v := p.(type) {
	case OrderLate:
		return v.OrderID
	case OrderReady:
		return v.OrderID
	case HighSale:
		return v.OrderID
	case StockLow:
		return v.ProductID
	case StockOut:
		return v.ProductID
	}
	return ""
}
