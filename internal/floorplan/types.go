package floorplan

import "strings"

// TableStatus is what the floor view shows for one seating unit.
type TableStatus string

const (
	// Computed statuses; always win when live orders exist for the table.
	StatusOrdered   TableStatus = "ordered"
	StatusAttention TableStatus = "attention"
	// Persisted hint statuses; only shown when no live order matches.
	StatusSeated        TableStatus = "seated"
	StatusNeedsCleaning TableStatus = "needs_cleaning"
	// Default when there is neither a live order nor a hint.
	StatusAvailable TableStatus = "available"
)

// PlateKey is the soft foreign key joining orders to tables. An order is
// associated to a table ONLY by case-insensitive equality of its plate
// number and the table label; this is a string match, not a reference, and
// duplicate or renamed labels silently misattribute orders. Every matching
// site must go through NewPlateKey so the rule lives in one place.
type PlateKey string

// NewPlateKey normalizes a plate number or table label for joining.
func NewPlateKey(s string) PlateKey {
	return PlateKey(strings.ToUpper(strings.TrimSpace(s)))
}

// Table is one seating unit on the floor plan. Geometry is on an integer
// grid. StatusHint is only advisory: seated/needs_cleaning set by staff,
// overridden by computed status whenever live orders exist.
type Table struct {
	TenantID string `dynamodbav:"tenant_id" json:"tenant_id"` // PK
	TableID  string `dynamodbav:"table_id" json:"table_id"`   // SK

	Label    string `dynamodbav:"label" json:"label"`
	X        int    `dynamodbav:"x" json:"x"`
	Y        int    `dynamodbav:"y" json:"y"`
	Width    int    `dynamodbav:"width" json:"width"`
	Height   int    `dynamodbav:"height" json:"height"`
	Rotation int    `dynamodbav:"rotation" json:"rotation"`
	Shape    string `dynamodbav:"shape" json:"shape"`

	StatusHint TableStatus `dynamodbav:"status_hint,omitempty" json:"status_hint,omitempty"`
}
