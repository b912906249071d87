package live

import (
	"context"
	"sync"

	"github.com/plateboard/plateboard/internal/orders"
)

// OrderView is the in-memory active order set maintained from the change
// stream, keyed by tenant. Completed orders drop out of the view; the
// aggregators re-derive their outputs from a snapshot on demand.
type OrderView struct {
	mu     sync.RWMutex
	orders map[string]map[string]orders.Order // tenant -> order id -> order
}

// NewOrderView returns an empty view.
func NewOrderView() *OrderView {
	return &OrderView{
		orders: map[string]map[string]orders.Order{},
	}
}

// Apply is a live.Handler; register it on a Subscriber.
func (v *OrderView) Apply(_ context.Context, batch []Change) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, ch := range batch {
		o := ch.Order
		tenant := v.orders[o.TenantID]
		if tenant == nil {
			tenant = map[string]orders.Order{}
			v.orders[o.TenantID] = tenant
		}

		switch ch.Type {
		case ChangeAdd, ChangeModify:
			if o.Active() {
				tenant[o.OrderID] = o
			} else {
				delete(tenant, o.OrderID)
			}
		case ChangeRemove:
			delete(tenant, o.OrderID)
		}
	}
}

// Active returns a copy of the tenant's active orders.
func (v *OrderView) Active(tenantID string) []orders.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()

	tenant := v.orders[tenantID]
	out := make([]orders.Order, 0, len(tenant))
	for _, o := range tenant {
		out = append(out, o)
	}
	return out
}

// Seed loads an initial snapshot (from a store query) before stream replay.
func (v *OrderView) Seed(active []orders.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, o := range active {
		if !o.Active() {
			continue
		}
		tenant := v.orders[o.TenantID]
		if tenant == nil {
			tenant = map[string]orders.Order{}
			v.orders[o.TenantID] = tenant
		}
		tenant[o.OrderID] = o
	}
}
