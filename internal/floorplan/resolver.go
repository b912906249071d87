package floorplan

import (
	"strings"
	"time"

	"github.com/plateboard/plateboard/internal/orders"
)

// TableView is the resolved state of one table: its computed status, the
// raw matching orders, and a synthetic aggregated order for display and
// combined billing. Aggregated is never persisted.
type TableView struct {
	Table      Table          `json:"table"`
	Status     TableStatus    `json:"status"`
	Orders     []orders.Order `json:"orders,omitempty"`
	Aggregated *orders.Order  `json:"aggregated,omitempty"`
}

// GroupByPlate buckets active orders by normalized plate key. Orders with no
// plate number (takeaway/online) never join a table.
func GroupByPlate(active []orders.Order) map[PlateKey][]orders.Order {
	byPlate := map[PlateKey][]orders.Order{}
	for _, o := range active {
		if strings.TrimSpace(o.PlateNumber) == "" {
			continue
		}
		k := NewPlateKey(o.PlateNumber)
		byPlate[k] = append(byPlate[k], o)
	}
	return byPlate
}

// Resolve joins the floor plan with the active order set and computes each
// table's status:
//
//   - no matching orders: the persisted hint if it is seated/needs_cleaning,
//     otherwise available;
//   - matching orders: attention if any is flagged by the classifier, else
//     ordered. Computed status always wins over the hint.
func Resolve(tables []Table, active []orders.Order, now time.Time) []TableView {
	byPlate := GroupByPlate(active)

	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		group := byPlate[NewPlateKey(t.Label)]
		view := TableView{Table: t}

		if len(group) == 0 {
			switch t.StatusHint {
			case StatusSeated, StatusNeedsCleaning:
				view.Status = t.StatusHint
			default:
				view.Status = StatusAvailable
			}
			views = append(views, view)
			continue
		}

		view.Status = StatusOrdered
		for _, o := range group {
			if orders.Classify(&o, now).NeedsAttention {
				view.Status = StatusAttention
				break
			}
		}
		view.Orders = group
		view.Aggregated = aggregate(group)
		views = append(views, view)
	}
	return views
}

// aggregate synthesizes one display order from a table's group: items
// concatenated in per-order order, money fields summed, id joined from
// truncated sub-ids, created_at from the earliest order.
func aggregate(group []orders.Order) *orders.Order {
	agg := &orders.Order{
		TenantID:    group[0].TenantID,
		PlateNumber: group[0].PlateNumber,
		StoreID:     group[0].StoreID,
		Status:      group[0].Status,
		CreatedAt:   group[0].CreatedAt,
	}

	ids := make([]string, 0, len(group))
	for _, o := range group {
		id := o.OrderID
		if len(id) > 6 {
			id = id[:6]
		}
		ids = append(ids, id)

		agg.Items = append(agg.Items, o.Items...)
		agg.Subtotal += o.Subtotal
		agg.Tip += o.Tip
		agg.PlatformFee += o.PlatformFee
		agg.Total += o.Total
		agg.AppliedDiscounts = append(agg.AppliedDiscounts, o.AppliedDiscounts...)

		if o.CreatedAt.Before(agg.CreatedAt) {
			agg.CreatedAt = o.CreatedAt
		}
	}
	agg.OrderID = strings.Join(ids, "+")
	return agg
}

// OccupancyRate is the share of tables whose status counts as occupied
// (seated, ordered or attention). Returns 0 for an empty floor plan.
func OccupancyRate(views []TableView) float64 {
	if len(views) == 0 {
		return 0
	}
	occupied := 0
	for _, v := range views {
		switch v.Status {
		case StatusSeated, StatusOrdered, StatusAttention:
			occupied++
		}
	}
	return float64(occupied) / float64(len(views))
}
