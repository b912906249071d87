package floorplan

import (
	"testing"
	"time"

	"github.com/plateboard/plateboard/internal/money"
	"github.com/plateboard/plateboard/internal/orders"
)

func mkTable(id, label string, hint TableStatus) Table {
	return Table{TenantID: "t1", TableID: id, Label: label, StatusHint: hint}
}

func mkPlateOrder(id, plate string, status orders.Status, createdAt time.Time) orders.Order {
	return orders.Order{
		TenantID:    "t1",
		OrderID:     id,
		PlateNumber: plate,
		Status:      status,
		CreatedAt:   createdAt,
	}
}

func TestNewPlateKeyNormalizes(t *testing.T) {
	if NewPlateKey("  t7 ") != NewPlateKey("T7") {
		t.Error("expected case-insensitive, trimmed join key")
	}
}

func TestGroupByPlateSkipsPlateless(t *testing.T) {
	now := time.Now()
	groups := GroupByPlate([]orders.Order{
		mkPlateOrder("o1", "T1", orders.StatusNew, now),
		mkPlateOrder("o2", "", orders.StatusNew, now),
		mkPlateOrder("o3", "  ", orders.StatusNew, now),
		mkPlateOrder("o4", "t1", orders.StatusReady, now),
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 plate group, got %d", len(groups))
	}
	if len(groups[NewPlateKey("T1")]) != 2 {
		t.Fatalf("expected both T1 orders grouped, got %d", len(groups[NewPlateKey("T1")]))
	}
}

func TestResolveComputedStatusWinsOverHint(t *testing.T) {
	now := time.Now()
	tables := []Table{mkTable("tab1", "T1", StatusSeated)}
	active := []orders.Order{mkPlateOrder("o1", "t1", orders.StatusNew, now)}

	views := Resolve(tables, active, now)
	if views[0].Status != StatusOrdered {
		t.Fatalf("expected ordered to override seated hint, got %s", views[0].Status)
	}
}

func TestResolveAttention(t *testing.T) {
	now := time.Now()
	tables := []Table{mkTable("tab1", "T1", "")}
	stale := mkPlateOrder("o1", "T1", orders.StatusInProgress, now.Add(-orders.AttentionAge-time.Minute))
	fresh := mkPlateOrder("o2", "T1", orders.StatusNew, now)

	views := Resolve(tables, []orders.Order{fresh, stale}, now)
	if views[0].Status != StatusAttention {
		t.Fatalf("one stale order should flag the whole table, got %s", views[0].Status)
	}
}

func TestResolveHintFallback(t *testing.T) {
	now := time.Now()
	tables := []Table{
		mkTable("tab1", "T1", StatusSeated),
		mkTable("tab2", "T2", StatusNeedsCleaning),
		mkTable("tab3", "T3", ""),
		// computed values are never valid hints; fall through to available
		mkTable("tab4", "T4", StatusOrdered),
	}

	views := Resolve(tables, nil, now)
	want := []TableStatus{StatusSeated, StatusNeedsCleaning, StatusAvailable, StatusAvailable}
	for i, v := range views {
		if v.Status != want[i] {
			t.Errorf("table %s: got %s, want %s", v.Table.TableID, v.Status, want[i])
		}
	}
}

func TestResolveAggregatesGroup(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-10 * time.Minute)

	o1 := mkPlateOrder("aaaaaa111", "T1", orders.StatusNew, now)
	o1.Items = []orders.OrderItem{{Name: "Burger", Quantity: 1}}
	o1.Subtotal = money.FromFloat(10)
	o1.Tip = money.FromFloat(1)
	o1.Total = money.FromFloat(11)

	o2 := mkPlateOrder("bbbbbb222", "T1", orders.StatusReady, earlier)
	o2.Items = []orders.OrderItem{{Name: "Fries", Quantity: 2}}
	o2.Subtotal = money.FromFloat(5)
	o2.Total = money.FromFloat(5)

	views := Resolve([]Table{mkTable("tab1", "T1", "")}, []orders.Order{o1, o2}, now)
	agg := views[0].Aggregated
	if agg == nil {
		t.Fatal("expected aggregated order")
	}
	if agg.OrderID != "aaaaaa+bbbbbb" {
		t.Errorf("aggregated id = %q", agg.OrderID)
	}
	if len(agg.Items) != 2 {
		t.Errorf("expected concatenated items, got %d", len(agg.Items))
	}
	if agg.Subtotal != money.FromFloat(15) || agg.Total != money.FromFloat(16) {
		t.Errorf("unexpected money sums: subtotal=%s total=%s", agg.Subtotal, agg.Total)
	}
	if !agg.CreatedAt.Equal(earlier) {
		t.Errorf("expected earliest created_at, got %v", agg.CreatedAt)
	}
}

func TestOccupancyRate(t *testing.T) {
	views := []TableView{
		{Status: StatusSeated},
		{Status: StatusOrdered},
		{Status: StatusAttention},
		{Status: StatusNeedsCleaning},
		{Status: StatusAvailable},
	}
	if got := OccupancyRate(views); got != 0.6 {
		t.Errorf("occupancy = %v, want 0.6", got)
	}
	if got := OccupancyRate(nil); got != 0 {
		t.Errorf("empty floor occupancy = %v, want 0", got)
	}
}
