package menu

import (
	"time"

	"github.com/plateboard/plateboard/internal/money"
)

// ModifierOption is one selectable option inside a group, with its price
// delta on top of the item base price.
type ModifierOption struct {
	Name  string       `dynamodbav:"name" json:"name"`
	Price money.Amount `dynamodbav:"price" json:"price"`
}

// ModifierGroup is a named set of options (e.g. "Size", "Extras").
type ModifierGroup struct {
	Name     string           `dynamodbav:"name" json:"name"`
	Required bool             `dynamodbav:"required" json:"required"`
	MaxPicks int              `dynamodbav:"max_picks,omitempty" json:"max_picks,omitempty"`
	Options  []ModifierOption `dynamodbav:"options" json:"options"`
}

// RecipeLink ties a menu item to an ingredient: Quantity units of the
// ingredient are consumed per unit of the item sold.
type RecipeLink struct {
	IngredientID string  `dynamodbav:"ingredient_id" json:"ingredient_id"`
	Quantity     float64 `dynamodbav:"quantity" json:"quantity"`
}

// Item is one menu entry. Orders snapshot its name and resolved price at
// checkout; later edits or deletion never touch placed orders.
type Item struct {
	TenantID   string `dynamodbav:"tenant_id" json:"tenant_id"`       // PK
	MenuItemID string `dynamodbav:"menu_item_id" json:"menu_item_id"` // SK

	Name        string       `dynamodbav:"name" json:"name"`
	Description string       `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Category    string       `dynamodbav:"category,omitempty" json:"category,omitempty"`
	BasePrice   money.Amount `dynamodbav:"base_price" json:"base_price"`
	IsAvailable bool         `dynamodbav:"is_available" json:"is_available"`

	ModifierGroups []ModifierGroup `dynamodbav:"modifier_groups,omitempty" json:"modifier_groups,omitempty"`
	Recipe         []RecipeLink    `dynamodbav:"recipe,omitempty" json:"recipe,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}
