package orders

import (
	"time"

	"github.com/plateboard/plateboard/internal/money"
)

// Status is the order lifecycle bucket. Statuses are staff/customer driven;
// nothing infers them from order contents.
type Status string

const (
	StatusPending    Status = "PENDING"     // table order awaiting staff approval
	StatusNew        Status = "NEW"         // approved / takeaway entry point
	StatusInProgress Status = "IN_PROGRESS" // kitchen working
	StatusReady      Status = "READY"       // awaiting pickup or delivery to table
	StatusCompleted  Status = "COMPLETED"   // terminal; excluded from the active set
)

// BoardStatuses are the kanban columns, in board order. COMPLETED orders
// never appear on the board.
var BoardStatuses = []Status{StatusPending, StatusNew, StatusInProgress, StatusReady}

// SelectedModifier is one chosen option within a modifier group, snapshotted
// at order time.
type SelectedModifier struct {
	GroupName   string       `dynamodbav:"group_name" json:"group_name"`
	OptionName  string       `dynamodbav:"option_name" json:"option_name"`
	OptionPrice money.Amount `dynamodbav:"option_price" json:"option_price"`
}

// OrderItem is one line within an Order.
//
// Name and UnitPrice are frozen at order-creation time and must never be
// re-resolved from the live menu: menu items can change or disappear after
// the order is placed.
type OrderItem struct {
	MenuItemID        string             `dynamodbav:"menu_item_id" json:"menu_item_id"`
	Name              string             `dynamodbav:"name" json:"name"`
	Quantity          int                `dynamodbav:"quantity" json:"quantity"`
	UnitPrice         money.Amount       `dynamodbav:"unit_price" json:"unit_price"` // includes selected modifiers
	SelectedModifiers []SelectedModifier `dynamodbav:"selected_modifiers,omitempty" json:"selected_modifiers,omitempty"`
	IsDelivered       bool               `dynamodbav:"is_delivered" json:"is_delivered"`
	Notes             string             `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
}

// AppliedDiscount records the single promotion applied at checkout.
type AppliedDiscount struct {
	PromotionName string       `dynamodbav:"promotion_name" json:"promotion_name"`
	Amount        money.Amount `dynamodbav:"amount" json:"amount"`
}

// Order represents one customer transaction as stored in the orders table.
// Partition key is tenant_id, sort key is order_id.
type Order struct {
	TenantID string `dynamodbav:"tenant_id" json:"tenant_id"` // PK
	OrderID  string `dynamodbav:"order_id" json:"order_id"`   // SK

	Items  []OrderItem `dynamodbav:"items" json:"items"` // insertion order = ticket order
	Status Status      `dynamodbav:"status" json:"status"`

	// PlateNumber is a soft join key against floor-plan table labels
	// (case-insensitive match). Empty means an online/takeaway order.
	PlateNumber string `dynamodbav:"plate_number,omitempty" json:"plate_number,omitempty"`
	// StoreID empty means online, no physical store.
	StoreID string `dynamodbav:"store_id,omitempty" json:"store_id,omitempty"`

	Subtotal    money.Amount `dynamodbav:"subtotal" json:"subtotal"`
	Tip         money.Amount `dynamodbav:"tip" json:"tip"`
	PlatformFee money.Amount `dynamodbav:"platform_fee" json:"platform_fee"`
	Total       money.Amount `dynamodbav:"total" json:"total"`

	AppliedDiscounts []AppliedDiscount `dynamodbav:"applied_discounts,omitempty" json:"applied_discounts,omitempty"`

	IsUrgent bool `dynamodbav:"is_urgent" json:"is_urgent"`

	// CustomerPhone is the loyalty identity; there is no account system for
	// end customers.
	CustomerPhone string `dynamodbav:"customer_phone,omitempty" json:"customer_phone,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"` // immutable once set
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// IsOnline reports whether the order has no physical store.
func (o *Order) IsOnline() bool { return o.StoreID == "" }

// Active reports whether the order belongs to the live working set.
func (o *Order) Active() bool { return o.Status != StatusCompleted }
