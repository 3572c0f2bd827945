package monitor

import (
	"fmt"
	"strings"

	"github.com/t77yq/floorwatch/internal/model"
)

// Classification is the display metadata derived from an alert payload
type Classification struct {
	Type     model.AlertType
	Title    string
	Message  string
	Priority model.AlertPriority
	Category model.AlertCategory
	Icon     string
	Color    string
}

// Classify maps a payload to its display, priority and category metadata.
// It never fails: payloads it has no entry for get the general, low priority
// classification.
func Classify(p model.Payload) Classification {
	switch v := p.(type) {
	case model.TableOccupied:
		msg := fmt.Sprintf("La mesa %d fue ocupada", v.TableNumber)
		if v.CustomerName != "" {
			msg += " por " + v.CustomerName
		}
		return mesa(v, "Mesa ocupada", msg, model.PriorityMedium, "users", "blue")
	case model.TableReleased:
		return mesa(v, "Mesa liberada",
			fmt.Sprintf("La mesa %d está disponible", v.TableNumber),
			model.PriorityLow, "user-check", "green")
	case model.TableMaintenance:
		msg := fmt.Sprintf("La mesa %d está fuera de servicio", v.TableNumber)
		if v.Reason != "" {
			msg += ": " + v.Reason
		}
		return mesa(v, "Mesa en mantenimiento", msg, model.PriorityMedium, "wrench", "gray")
	case model.OccupancyHigh:
		return mesa(v, "Ocupación alta",
			fmt.Sprintf("Ocupación al %s%% (%d de %d mesas)", v.Percentage, v.Occupied, v.Total),
			model.PriorityHigh, "trending-up", "red")

	case model.OrderLate:
		msg := fmt.Sprintf("El pedido %s lleva %d minutos en preparación", v.OrderID, v.MinutesElapsed)
		return tiempo(v, "Pedido atrasado", msg+tableSuffix(v.TableNumber, v.CustomerName),
			model.PriorityHigh, "clock", "red")
	case model.OrderReady:
		msg := fmt.Sprintf("El pedido %s está listo para servir", v.OrderID)
		return tiempo(v, "Pedido listo", msg+tableSuffix(v.TableNumber, v.CustomerName),
			model.PriorityHigh, "check-circle", "green")
	case model.PrepTimeHigh:
		return tiempo(v, "Tiempo de preparación alto",
			fmt.Sprintf("Promedio de %d minutos en %d pedidos en preparación", v.AverageMinutes, v.OrdersCount),
			model.PriorityMedium, "timer", "orange")
	case model.PeakHour:
		return tiempo(v, "Hora pico",
			fmt.Sprintf("%d pedidos en la última hora (%02d:00)", v.OrdersCount, v.Hour),
			model.PriorityMedium, "activity", "purple")

	case model.StockLow:
		priority := model.PriorityMedium
		if v.CurrentStock*2 <= v.MinStock {
			priority = model.PriorityHigh
		}
		return balance(v, "Stock bajo",
			fmt.Sprintf("%s: quedan %d unidades (mínimo %d)", v.ProductName, v.CurrentStock, v.MinStock),
			priority, "package", "orange")
	case model.StockOut:
		return balance(v, "Sin stock",
			fmt.Sprintf("%s se ha agotado", v.ProductName),
			model.PriorityHigh, "alert-triangle", "red")
	case model.HighSale:
		priority := model.PriorityMedium
		if v.Amount >= 2*HighSaleAmount {
			priority = model.PriorityHigh
		}
		msg := fmt.Sprintf("Venta de $%.2f en el pedido %s", v.Amount, v.OrderID)
		return balance(v, "Venta alta", msg+tableSuffix(v.TableNumber, v.CustomerName),
			priority, "dollar-sign", "green")
	case model.DailyGoalMet:
		return balance(v, "Meta diaria alcanzada",
			fmt.Sprintf("Ventas del día: $%.2f", v.Amount),
			model.PriorityLow, "target", "green")

	case model.Generic:
		return general(v.Kind, v.Fields)
	}

	var t model.AlertType
	if p != nil {
		t = p.Type()
	}
	return general(t, nil)
}

func general(t model.AlertType, fields map[string]any) Classification {
	msg := string(t)
	if s, ok := fields["message"].(string); ok && s != "" {
		msg = s
	}
	title := "Notificación"
	if s, ok := fields["title"].(string); ok && s != "" {
		title = s
	}
	return Classification{
		Type:     t,
		Title:    title,
		Message:  msg,
		Priority: model.PriorityLow,
		Category: model.CategoryGeneral,
		Icon:     "bell",
		Color:    "gray",
	}
}

func mesa(p model.Payload, title, msg string, pr model.AlertPriority, icon, color string) Classification {
	return classification(p, model.CategoryMesa, title, msg, pr, icon, color)
}

func tiempo(p model.Payload, title, msg string, pr model.AlertPriority, icon, color string) Classification {
	return classification(p, model.CategoryTiempo, title, msg, pr, icon, color)
}

func balance(p model.Payload, title, msg string, pr model.AlertPriority, icon, color string) Classification {
	return classification(p, model.CategoryBalance, title, msg, pr, icon, color)
}

func classification(p model.Payload, cat model.AlertCategory, title, msg string, pr model.AlertPriority, icon, color string) Classification {
	return Classification{
		Type:     p.Type(),
		Title:    title,
		Message:  msg,
		Priority: pr,
		Category: cat,
		Icon:     icon,
		Color:    color,
	}
}

func tableSuffix(table int, customer string) string {
	var parts []string
	if table > 0 {
		parts = append(parts, fmt.Sprintf("mesa %d", table))
	}
	if customer != "" {
		parts = append(parts, customer)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
