package monitor

import "github.com/t77yq/floorwatch/internal/model"

// Push-path helpers for business events that just happened. Each one is a
// thin wrapper over CreateNotification.

func (e *AlertEngine) NotifyTableOccupied(tableNumber int, customerName string) string {
	return e.CreateNotification(model.TableOccupied{TableNumber: tableNumber, CustomerName: customerName})
}

func (e *AlertEngine) NotifyTableReleased(tableNumber int) string {
	return e.CreateNotification(model.TableReleased{TableNumber: tableNumber})
}

func (e *AlertEngine) NotifyTableMaintenance(tableNumber int, reason string) string {
	return e.CreateNotification(model.TableMaintenance{TableNumber: tableNumber, Reason: reason})
}

func (e *AlertEngine) NotifyOrderReady(orderID string, tableNumber int, customerName string) string {
	return e.CreateNotification(model.OrderReady{
		OrderID:      orderID,
		TableNumber:  tableNumber,
		CustomerName: customerName,
	})
}

func (e *AlertEngine) NotifyLowStock(productID, productName string, currentStock, minStock int) string {
	return e.CreateNotification(model.StockLow{
		ProductID:    productID,
		ProductName:  productName,
		CurrentStock: currentStock,
		MinStock:     minStock,
	})
}

func (e *AlertEngine) NotifyHighSale(orderID string, amount float64, tableNumber int, customerName string) string {
	return e.CreateNotification(model.HighSale{
		OrderID:      orderID,
		Amount:       amount,
		TableNumber:  tableNumber,
		CustomerName: customerName,
	})
}
