package model

import (
	"strings"
	"time"
)

// OrderStatus represents the current status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pendiente"
	OrderStatusPreparing OrderStatus = "preparando"
	OrderStatusReady     OrderStatus = "listo"
	OrderStatusCompleted OrderStatus = "completado"
	OrderStatusCanceled  OrderStatus = "cancelado"
)

// TableStatus represents the current status of a dining table
type TableStatus string

const (
	TableStatusAvailable   TableStatus = "disponible"
	TableStatusOccupied    TableStatus = "ocupada"
	TableStatusReserved    TableStatus = "reservada"
	TableStatusMaintenance TableStatus = "mantenimiento"
)

// DefaultMinStock applies to inventory items without a minimum
const DefaultMinStock = 5

var orderStatusAliases = map[string]OrderStatus{
	"pendiente":  OrderStatusPending,
	"pending":    OrderStatusPending,
	"preparando": OrderStatusPreparing,
	"preparing":  OrderStatusPreparing,
	"listo":      OrderStatusReady,
	"ready":      OrderStatusReady,
	"completado": OrderStatusCompleted,
	"completed":  OrderStatusCompleted,
	"cancelado":  OrderStatusCanceled,
	"canceled":   OrderStatusCanceled,
	"cancelled":  OrderStatusCanceled,
}

var tableStatusAliases = map[string]TableStatus{
	"disponible":    TableStatusAvailable,
	"available":     TableStatusAvailable,
	"libre":         TableStatusAvailable,
	"ocupada":       TableStatusOccupied,
	"occupied":      TableStatusOccupied,
	"reservada":     TableStatusReserved,
	"reserved":      TableStatusReserved,
	"mantenimiento": TableStatusMaintenance,
	"maintenance":   TableStatusMaintenance,
}

// ParseOrderStatus normalizes a status string coming from the database.
// Unknown values are returned lowercased as-is.
func ParseOrderStatus(s string) OrderStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := orderStatusAliases[key]; ok {
		return st
	}
	return OrderStatus(key)
}

// ParseTableStatus normalizes a table status string
func ParseTableStatus(s string) TableStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := tableStatusAliases[key]; ok {
		return st
	}
	return TableStatus(key)
}

// Order is the read-only view of an order the monitor works with
type Order struct {
	ID           string      `json:"id"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	TableID      int         `json:"table_id,omitempty"`
	CustomerName string      `json:"customer_name,omitempty"`
	Total        float64     `json:"total"`
}

// InventoryItem is the read-only view of a stocked product
type InventoryItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	// MinStock is nil when the item has no configured minimum
	MinStock *int `json:"min_stock,omitempty"`
}

// Minimum returns the configured minimum or DefaultMinStock
func (i InventoryItem) Minimum() int {
	if i.MinStock == nil {
		return DefaultMinStock
	}
	return *i.MinStock
}

// Table is the read-only view of a dining table
type Table struct {
	ID     int         `json:"id"`
	Status TableStatus `json:"status"`
}

// Snapshot is the tuple of business state read at the start of a tick
type Snapshot struct {
	Orders    []Order         `json:"orders"`
	Inventory []InventoryItem `json:"inventory"`
	Tables    []Table         `json:"tables"`
}
