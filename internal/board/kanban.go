// Package board holds the pure reducers that turn the active order set into
// view models: kanban columns and prep tickets. Everything here is
// side-effect free so the reducers can be re-run on every change-event batch.
package board

import (
	"sort"
	"strings"

	"github.com/plateboard/plateboard/internal/orders"
)

// StoreFilterAll and StoreFilterOnline are the two special store filter
// values; any other non-empty value is matched against Order.StoreID.
const (
	StoreFilterAll    = "all"
	StoreFilterOnline = "online"
)

// Columns are the four kanban lanes in board order.
type Columns struct {
	Pending    []orders.Order `json:"pending"`
	New        []orders.Order `json:"new"`
	InProgress []orders.Order `json:"in_progress"`
	Ready      []orders.Order `json:"ready"`
}

// Filter narrows the active set by store and by a free-text search over
// plate number and order id. Search is a case-insensitive substring match.
func Filter(active []orders.Order, storeFilter, search string) []orders.Order {
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]orders.Order, 0, len(active))
	for _, o := range active {
		switch storeFilter {
		case StoreFilterAll, "":
		case StoreFilterOnline:
			if !o.IsOnline() {
				continue
			}
		default:
			if o.StoreID != storeFilter {
				continue
			}
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(o.PlateNumber), search) &&
			!strings.Contains(strings.ToLower(o.OrderID), search) {
			continue
		}

		out = append(out, o)
	}
	return out
}

// SortForBoard orders a slice in place: urgent orders first, then by
// created_at ascending within each urgency tier. The sort is stable so
// equal-urgency, equal-time orders keep their relative position; this is a
// stable partition, not a full re-sort.
func SortForBoard(os []orders.Order) {
	sort.SliceStable(os, func(i, j int) bool {
		if os[i].IsUrgent != os[j].IsUrgent {
			return os[i].IsUrgent
		}
		return os[i].CreatedAt.Before(os[j].CreatedAt)
	})
}

// BuildColumns filters, sorts and buckets the active set into the four
// kanban lanes. Position within a lane is always recomputed from the sort
// rule; manual placement is never persisted.
func BuildColumns(active []orders.Order, storeFilter, search string) Columns {
	filtered := Filter(active, storeFilter, search)
	SortForBoard(filtered)

	var cols Columns
	for _, o := range filtered {
		switch o.Status {
		case orders.StatusPending:
			cols.Pending = append(cols.Pending, o)
		case orders.StatusNew:
			cols.New = append(cols.New, o)
		case orders.StatusInProgress:
			cols.InProgress = append(cols.InProgress, o)
		case orders.StatusReady:
			cols.Ready = append(cols.Ready, o)
		}
	}
	return cols
}
