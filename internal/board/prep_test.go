package board

import (
	"testing"
	"time"

	"github.com/plateboard/plateboard/internal/orders"
)

func TestBuildPrepItemsGroupsByNameModifiersAndNotes(t *testing.T) {
	now := time.Now()

	o1 := mkOrder("o1", orders.StatusNew, now)
	o1.PlateNumber = "T1"
	o1.Items = []orders.OrderItem{
		{MenuItemID: "m1", Name: "Burger", Quantity: 1},
		{MenuItemID: "m2", Name: "Fries", Quantity: 2},
	}
	o2 := mkOrder("o2", orders.StatusInProgress, now)
	o2.Items = []orders.OrderItem{
		{MenuItemID: "m1", Name: "Burger", Quantity: 2},
	}

	items := BuildPrepItems([]orders.Order{o1, o2})
	if len(items) != 2 {
		t.Fatalf("expected 2 prep items, got %d", len(items))
	}

	// 1 + 2 burgers outrank 2 fries
	if items[0].Name != "Burger" || items[0].TotalQuantity != 3 {
		t.Fatalf("expected Burger x3 first, got %s x%d", items[0].Name, items[0].TotalQuantity)
	}
	if len(items[0].Contributors) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(items[0].Contributors))
	}
	if items[0].Contributors[0].OrderID != "o1" || items[0].Contributors[0].PlateNumber != "T1" {
		t.Errorf("unexpected first contributor: %+v", items[0].Contributors[0])
	}
	if items[1].Name != "Fries" || items[1].TotalQuantity != 2 {
		t.Fatalf("expected Fries x2 second, got %s x%d", items[1].Name, items[1].TotalQuantity)
	}
}

func TestBuildPrepItemsNotesSplitGroups(t *testing.T) {
	o := mkOrder("o1", orders.StatusNew, time.Now())
	o.Items = []orders.OrderItem{
		{Name: "Burger", Quantity: 1},
		{Name: "Burger", Quantity: 1, Notes: "no onion"},
	}

	items := BuildPrepItems([]orders.Order{o})
	if len(items) != 2 {
		t.Fatalf("expected notes to split the group, got %d items", len(items))
	}
	for _, it := range items {
		if it.TotalQuantity != 1 {
			t.Errorf("expected quantity 1 per group, got %d for notes %q", it.TotalQuantity, it.Notes)
		}
	}
}

func TestBuildPrepItemsModifiersSplitGroups(t *testing.T) {
	spicy := []orders.SelectedModifier{{GroupName: "Heat", OptionName: "Spicy"}}
	mild := []orders.SelectedModifier{{GroupName: "Heat", OptionName: "Mild"}}

	o := mkOrder("o1", orders.StatusNew, time.Now())
	o.Items = []orders.OrderItem{
		{Name: "Wings", Quantity: 2, SelectedModifiers: spicy},
		{Name: "Wings", Quantity: 3, SelectedModifiers: mild},
		{Name: "Wings", Quantity: 1, SelectedModifiers: spicy},
	}

	items := BuildPrepItems([]orders.Order{o})
	if len(items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(items))
	}
	// equal totals: first-encountered group stays first
	if items[0].Modifiers != "Spicy" || items[0].TotalQuantity != 3 {
		t.Errorf("expected Spicy x3 first, got %q x%d", items[0].Modifiers, items[0].TotalQuantity)
	}
	if items[1].Modifiers != "Mild" || items[1].TotalQuantity != 3 {
		t.Errorf("expected Mild x3 second, got %q x%d", items[1].Modifiers, items[1].TotalQuantity)
	}
}

func TestBuildPrepItemsExcludesDelivered(t *testing.T) {
	o := mkOrder("o1", orders.StatusNew, time.Now())
	o.Items = []orders.OrderItem{
		{Name: "Burger", Quantity: 2, IsDelivered: true},
		{Name: "Fries", Quantity: 1},
	}

	items := BuildPrepItems([]orders.Order{o})
	if len(items) != 1 {
		t.Fatalf("expected delivered lines excluded, got %d items", len(items))
	}
	if items[0].Name != "Fries" {
		t.Errorf("expected only Fries, got %s", items[0].Name)
	}
}

func TestBuildPrepItemsEmptyNotesPlaceholder(t *testing.T) {
	o := mkOrder("o1", orders.StatusNew, time.Now())
	o.Items = []orders.OrderItem{{Name: "Burger", Quantity: 1}}

	items := BuildPrepItems([]orders.Order{o})
	if items[0].Notes != "no-note" {
		t.Errorf("expected no-note placeholder, got %q", items[0].Notes)
	}
}
