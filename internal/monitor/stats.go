package monitor

import "github.com/t77yq/floorwatch/internal/model"

// ComputeStats counts alerts by read state, category and priority
func ComputeStats(alerts []model.Alert) model.Stats {
	stats := model.Stats{
		Total: len(alerts),
		ByCategory: map[model.AlertCategory]int{
			model.CategoryMesa:    0,
			model.CategoryTiempo:  0,
			model.CategoryBalance: 0,
		},
		ByPriority: map[model.AlertPriority]int{
			model.PriorityHigh:   0,
			model.PriorityMedium: 0,
			model.PriorityLow:    0,
		},
	}

	for _, a := range alerts {
		if !a.Read {
			stats.Unread++
		}
		if a.Category.Valid() {
			stats.ByCategory[a.Category]++
		}
		stats.ByPriority[a.Priority]++
	}
	return stats
}
