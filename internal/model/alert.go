package model

import "time"

// AlertCategory groups alert types into the Mesa/Tiempo/Balance families
type AlertCategory string

const (
	CategoryMesa    AlertCategory = "mesa"
	CategoryTiempo  AlertCategory = "tiempo"
	CategoryBalance AlertCategory = "balance"
	CategoryGeneral AlertCategory = "general"
)

// Categories lists the three rule families in display order
var Categories = []AlertCategory{CategoryMesa, CategoryTiempo, CategoryBalance}

// Valid reports whether c is one of the rule families
func (c AlertCategory) Valid() bool {
	switch c {
	case CategoryMesa, CategoryTiempo, CategoryBalance:
		return true
	}
	return false
}

// AlertPriority represents how urgently staff should look at an alert
type AlertPriority string

const (
	PriorityLow    AlertPriority = "low"
	PriorityMedium AlertPriority = "medium"
	PriorityHigh   AlertPriority = "high"
)

// AlertType represents the type of alert
type AlertType string

const (
	AlertTypeTableOccupied    AlertType = "table-occupied"
	AlertTypeTableReleased    AlertType = "table-released"
	AlertTypeTableMaintenance AlertType = "table-maintenance"
	AlertTypeOccupancyHigh    AlertType = "occupancy-high"

	AlertTypeOrderLate    AlertType = "order-late"
	AlertTypeOrderReady   AlertType = "order-ready"
	AlertTypePrepTimeHigh AlertType = "prep-time-high"
	AlertTypePeakHour     AlertType = "peak-hour"

	AlertTypeStockLow     AlertType = "stock-low"
	AlertTypeStockOut     AlertType = "stock-out"
	AlertTypeHighSale     AlertType = "high-sale"
	AlertTypeDailyGoalMet AlertType = "daily-goal-met"
)

// Alert represents a classified alert held by the alert store
type Alert struct {
	ID        string        `json:"id"`
	Type      AlertType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Payload   Payload       `json:"payload"`
	Read      bool          `json:"read"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Priority  AlertPriority `json:"priority"`
	Category  AlertCategory `json:"category"`
	Icon      string        `json:"icon"`
	Color     string        `json:"color"`
}

// Stats holds counts over the current alert store contents
type Stats struct {
	Total      int                   `json:"total"`
	Unread     int                   `json:"unread"`
	ByCategory map[AlertCategory]int `json:"by_category"`
	ByPriority map[AlertPriority]int `json:"by_priority"`
}
