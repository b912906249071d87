// Package live turns the orders table's change stream into batches of
// change events fanned out to registered handlers. The board, floor-plan
// and prep views are pure functions re-run over the cached order set on
// every batch, so none of the aggregation logic needs a live backend to be
// tested.
package live

import (
	"context"

	"github.com/plateboard/plateboard/internal/orders"
)

// ChangeType mirrors the stream event names.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
	ChangeRemove ChangeType = "remove"
)

// Change is one decoded stream record. For removes, Order carries the old
// image so handlers know which tenant/order disappeared.
type Change struct {
	Type  ChangeType
	Order orders.Order
}

// Handler receives each decoded batch in stream order.
type Handler func(ctx context.Context, batch []Change)
