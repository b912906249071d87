package inventory

import "time"

// Ingredient is one stocked item. StockQuantity is mutated only through
// atomic ADD adjustments so concurrent deductions never read-modify-write.
type Ingredient struct {
	TenantID     string `dynamodbav:"tenant_id" json:"tenant_id"`         // PK
	IngredientID string `dynamodbav:"ingredient_id" json:"ingredient_id"` // SK

	Name          string  `dynamodbav:"name" json:"name"`
	Unit          string  `dynamodbav:"unit" json:"unit"` // e.g. g, ml, pcs
	StockQuantity float64 `dynamodbav:"stock_quantity" json:"stock_quantity"`
	LowThreshold  float64 `dynamodbav:"low_threshold,omitempty" json:"low_threshold,omitempty"`

	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// Low reports whether the ingredient has fallen to or below its threshold.
func (i *Ingredient) Low() bool {
	return i.LowThreshold > 0 && i.StockQuantity <= i.LowThreshold
}
