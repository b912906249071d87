package board

import (
	"sort"
	"strings"

	"github.com/plateboard/plateboard/internal/orders"
)

// PrepContributor records which order contributes how much to a prep ticket.
type PrepContributor struct {
	OrderID     string `json:"order_id"`
	PlateNumber string `json:"plate_number,omitempty"`
	Quantity    int    `json:"quantity"`
}

// PrepItem is one grouped prep ticket: every undelivered line that shares a
// name, modifier set and note collapses into one of these.
type PrepItem struct {
	Name          string            `json:"name"`
	Modifiers     string            `json:"modifiers,omitempty"`
	Notes         string            `json:"notes"`
	TotalQuantity int               `json:"total_quantity"`
	Contributors  []PrepContributor `json:"contributors"`
}

const noNote = "no-note"

// prepKey builds the grouping key: name, the sorted-and-joined modifier
// option names, and the note (or a placeholder when empty).
func prepKey(it orders.OrderItem) string {
	mods := make([]string, 0, len(it.SelectedModifiers))
	for _, m := range it.SelectedModifiers {
		mods = append(mods, m.OptionName)
	}
	sort.Strings(mods)

	notes := it.Notes
	if notes == "" {
		notes = noNote
	}
	return it.Name + "|" + strings.Join(mods, ",") + "|" + notes
}

// BuildPrepItems collapses all undelivered line items across the active set
// into grouped prep tickets, sorted by total quantity descending. Delivered
// lines are excluded entirely: the view reflects outstanding work only.
func BuildPrepItems(active []orders.Order) []PrepItem {
	byKey := map[string]*PrepItem{}
	var keyOrder []string

	for _, o := range active {
		for _, it := range o.Items {
			if it.IsDelivered {
				continue
			}
			k := prepKey(it)
			p, ok := byKey[k]
			if !ok {
				mods := make([]string, 0, len(it.SelectedModifiers))
				for _, m := range it.SelectedModifiers {
					mods = append(mods, m.OptionName)
				}
				sort.Strings(mods)
				notes := it.Notes
				if notes == "" {
					notes = noNote
				}
				p = &PrepItem{
					Name:      it.Name,
					Modifiers: strings.Join(mods, ", "),
					Notes:     notes,
				}
				byKey[k] = p
				keyOrder = append(keyOrder, k)
			}
			p.TotalQuantity += it.Quantity
			p.Contributors = append(p.Contributors, PrepContributor{
				OrderID:     o.OrderID,
				PlateNumber: o.PlateNumber,
				Quantity:    it.Quantity,
			})
		}
	}

	out := make([]PrepItem, 0, len(byKey))
	for _, k := range keyOrder {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalQuantity > out[j].TotalQuantity
	})
	return out
}
