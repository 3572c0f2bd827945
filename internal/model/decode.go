package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyAlertType is returned when a payload is decoded without a type
var ErrEmptyAlertType = errors.New("empty alert type")

// DecodePayload builds the payload for t from its JSON body. Types without a
// dedicated payload decode into Generic with the body as fields.
func DecodePayload(t AlertType, raw []byte) (Payload, error) {
	if t == "" {
		return nil, ErrEmptyAlertType
	}

	var p Payload
	var err error
	switch t {
	case AlertTypeTableOccupied:
		p, err = decodeInto[TableOccupied](raw)
	case AlertTypeTableReleased:
		p, err = decodeInto[TableReleased](raw)
	case AlertTypeTableMaintenance:
		p, err = decodeInto[TableMaintenance](raw)
	case AlertTypeOccupancyHigh:
		p, err = decodeInto[OccupancyHigh](raw)
	case AlertTypeOrderLate:
		p, err = decodeInto[OrderLate](raw)
	case AlertTypeOrderReady:
		p, err = decodeInto[OrderReady](raw)
	case AlertTypePrepTimeHigh:
		p, err = decodeInto[PrepTimeHigh](raw)
	case AlertTypePeakHour:
		p, err = decodeInto[PeakHour](raw)
	case AlertTypeStockLow:
		p, err = decodeInto[StockLow](raw)
	case AlertTypeStockOut:
		p, err = decodeInto[StockOut](raw)
	case AlertTypeHighSale:
		p, err = decodeInto[HighSale](raw)
	case AlertTypeDailyGoalMet:
		p, err = decodeInto[DailyGoalMet](raw)
	default:
		g := Generic{Kind: t}
		if len(raw) > 0 {
			err = json.Unmarshal(raw, &g.Fields)
		}
		p = g
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return p, nil
}

func decodeInto[T Payload](raw []byte) (Payload, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
