package validation

// SelectionRequest is one modifier choice on a checkout line.
type SelectionRequest struct {
	GroupName  string `json:"group_name" validate:"required"`
	OptionName string `json:"option_name" validate:"required"`
}

// CheckoutLine is one cart line in a checkout request. Prices are resolved
// server-side from the live menu; the client never supplies them.
type CheckoutLine struct {
	MenuItemID string             `json:"menu_item_id" validate:"required"`
	Quantity   int                `json:"quantity" validate:"required,min=1"`
	Selections []SelectionRequest `json:"selections,omitempty" validate:"dive"`
	Notes      string             `json:"notes,omitempty" validate:"max=500"`
}

// CheckoutRequest is the payload for POST /checkout. A plate number makes it
// a table order (enters PENDING); without one it is takeaway/online (NEW).
type CheckoutRequest struct {
	Lines         []CheckoutLine `json:"lines" validate:"required,min=1,dive"`
	PlateNumber   string         `json:"plate_number,omitempty" validate:"max=16"`
	StoreID       string         `json:"store_id,omitempty"`
	CustomerPhone string         `json:"customer_phone,omitempty" validate:"omitempty,e164"`
	Tip           float64        `json:"tip,omitempty" validate:"gte=0"`
}

// MoveOrderRequest drags a card to another kanban column.
type MoveOrderRequest struct {
	NewStatus string `json:"new_status" validate:"required,oneof=PENDING NEW IN_PROGRESS READY COMPLETED"`
}

// UrgentRequest toggles the urgent flag.
type UrgentRequest struct {
	Urgent bool `json:"urgent"`
}

// DeliveredRequest toggles one line item's delivered flag.
type DeliveredRequest struct {
	ItemIndex int  `json:"item_index" validate:"min=0"`
	Delivered bool `json:"delivered"`
}

// TableRequest creates or updates a floor-plan table.
type TableRequest struct {
	Label    string `json:"label" validate:"required,max=16"`
	X        int    `json:"x" validate:"gte=0"`
	Y        int    `json:"y" validate:"gte=0"`
	Width    int    `json:"width" validate:"required,gt=0"`
	Height   int    `json:"height" validate:"required,gt=0"`
	Rotation int    `json:"rotation" validate:"gte=0,lt=360"`
	Shape    string `json:"shape" validate:"required,oneof=rect round"`
}

// HintRequest sets a table's persisted hint status.
type HintRequest struct {
	Hint string `json:"hint" validate:"required,oneof=seated needs_cleaning available"`
}

// RedeemRequest redeems a visit-based reward for a customer.
type RedeemRequest struct {
	Phone       string `json:"phone" validate:"required,e164"`
	PromotionID string `json:"promotion_id" validate:"required"`
}

// RedeemPointsRequest spends points against one tier of a spend-based
// program.
type RedeemPointsRequest struct {
	Phone       string `json:"phone" validate:"required,e164"`
	PromotionID string `json:"promotion_id" validate:"required"`
	TierPoints  int    `json:"tier_points" validate:"required,gt=0"`
}

// ModifierOptionRequest is one option inside a modifier group.
type ModifierOptionRequest struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// ModifierGroupRequest defines a modifier group on a menu item.
type ModifierGroupRequest struct {
	Name     string                  `json:"name" validate:"required"`
	Required bool                    `json:"required"`
	MaxPicks int                     `json:"max_picks" validate:"gte=0"`
	Options  []ModifierOptionRequest `json:"options" validate:"required,min=1,dive"`
}

// RecipeLinkRequest ties a menu item to ingredient consumption.
type RecipeLinkRequest struct {
	IngredientID string  `json:"ingredient_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
}

// MenuItemRequest creates or updates a menu item.
type MenuItemRequest struct {
	Name           string                 `json:"name" validate:"required,max=120"`
	Description    string                 `json:"description" validate:"max=1000"`
	Category       string                 `json:"category" validate:"max=60"`
	BasePrice      float64                `json:"base_price" validate:"required,gt=0"`
	IsAvailable    bool                   `json:"is_available"`
	ModifierGroups []ModifierGroupRequest `json:"modifier_groups,omitempty" validate:"dive"`
	Recipe         []RecipeLinkRequest    `json:"recipe,omitempty" validate:"dive"`
}

// IngredientRequest creates or updates an ingredient.
type IngredientRequest struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Unit          string  `json:"unit" validate:"required,max=16"`
	StockQuantity float64 `json:"stock_quantity" validate:"gte=0"`
	LowThreshold  float64 `json:"low_threshold" validate:"gte=0"`
}

// StockAdjustRequest applies an atomic stock delta.
type StockAdjustRequest struct {
	Delta float64 `json:"delta" validate:"required"`
}

// SpecialOfferRequest holds discount parameters. Exactly one of percentage
// or fixed_amount must be positive; checked at the struct level.
type SpecialOfferRequest struct {
	Percentage        float64  `json:"percentage" validate:"gte=0,lte=100"`
	FixedAmount       float64  `json:"fixed_amount" validate:"gte=0"`
	ApplicableItemIDs []string `json:"applicable_item_ids,omitempty"`
}

// RewardTierRequest is one spend-based redemption level.
type RewardTierRequest struct {
	Points       int    `json:"points" validate:"required,gt=0"`
	RewardItemID string `json:"reward_item_id" validate:"required"`
}

// LoyaltyDetailsRequest holds loyalty parameters for either sub-variant.
type LoyaltyDetailsRequest struct {
	Kind              string              `json:"kind" validate:"required,oneof=visit_based spend_based"`
	VisitGoal         int                 `json:"visit_goal" validate:"gte=0"`
	RewardItemID      string              `json:"reward_item_id,omitempty"`
	QualifyingItemIDs []string            `json:"qualifying_item_ids,omitempty"`
	EarnRate          float64             `json:"earn_rate" validate:"gte=0"`
	Tiers             []RewardTierRequest `json:"tiers,omitempty" validate:"dive"`
}

// MultiBuyRequest holds buy-N-get-M parameters.
type MultiBuyRequest struct {
	ItemID       string `json:"item_id" validate:"required"`
	BuyQuantity  int    `json:"buy_quantity" validate:"required,gt=0"`
	FreeQuantity int    `json:"free_quantity" validate:"required,gt=0"`
}

// PromotionRequest creates or updates a promotion. The details struct
// matching the type must be present; checked at the struct level.
type PromotionRequest struct {
	Name         string                 `json:"name" validate:"required,max=120"`
	Type         string                 `json:"type" validate:"required,oneof=loyalty special_offer multi_buy"`
	IsActive     bool                   `json:"is_active"`
	SpecialOffer *SpecialOfferRequest   `json:"special_offer,omitempty"`
	Loyalty      *LoyaltyDetailsRequest `json:"loyalty,omitempty"`
	MultiBuy     *MultiBuyRequest       `json:"multi_buy,omitempty"`
}
