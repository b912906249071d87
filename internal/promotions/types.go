package promotions

import (
	"time"

	"github.com/plateboard/plateboard/internal/money"
)

// Type discriminates the promotion variant. Exactly one of the detail
// structs is set, matching the tag; evaluation sites switch exhaustively
// on it so a new variant is a compile-visible change.
type Type string

const (
	TypeLoyalty      Type = "loyalty"
	TypeSpecialOffer Type = "special_offer"
	TypeMultiBuy     Type = "multi_buy"
)

// LoyaltyKind splits the loyalty variant.
type LoyaltyKind string

const (
	// KindVisitBased: reach a goal count of qualifying visits, earn one
	// free reward item.
	KindVisitBased LoyaltyKind = "visit_based"
	// KindSpendBased: accrue points per currency unit spent, redeem against
	// tiered rewards.
	KindSpendBased LoyaltyKind = "spend_based"
)

// SpecialOfferDetails describes a discount. Percentage > 0 means a
// percentage offer; otherwise FixedAmount applies. An empty
// ApplicableItemIDs set means the offer covers the whole cart.
type SpecialOfferDetails struct {
	Percentage        float64      `dynamodbav:"percentage,omitempty" json:"percentage,omitempty"` // 0-100
	FixedAmount       money.Amount `dynamodbav:"fixed_amount,omitempty" json:"fixed_amount,omitempty"`
	ApplicableItemIDs []string     `dynamodbav:"applicable_item_ids,omitempty" json:"applicable_item_ids,omitempty"`
}

// RewardTier is one spend-based redemption level.
type RewardTier struct {
	Points       int    `dynamodbav:"points" json:"points"`
	RewardItemID string `dynamodbav:"reward_item_id" json:"reward_item_id"`
}

// LoyaltyDetails describes either loyalty sub-variant, selected by Kind.
type LoyaltyDetails struct {
	Kind LoyaltyKind `dynamodbav:"kind" json:"kind"`

	// visit_based
	VisitGoal         int      `dynamodbav:"visit_goal,omitempty" json:"visit_goal,omitempty"`
	RewardItemID      string   `dynamodbav:"reward_item_id,omitempty" json:"reward_item_id,omitempty"`
	QualifyingItemIDs []string `dynamodbav:"qualifying_item_ids,omitempty" json:"qualifying_item_ids,omitempty"`

	// spend_based
	EarnRate float64      `dynamodbav:"earn_rate,omitempty" json:"earn_rate,omitempty"` // points per currency unit
	Tiers    []RewardTier `dynamodbav:"tiers,omitempty" json:"tiers,omitempty"`
}

// MultiBuyDetails describes a buy-N-get-M offer on one item.
type MultiBuyDetails struct {
	ItemID       string `dynamodbav:"item_id" json:"item_id"`
	BuyQuantity  int    `dynamodbav:"buy_quantity" json:"buy_quantity"`
	FreeQuantity int    `dynamodbav:"free_quantity" json:"free_quantity"`
}

// Promotion is a named rule controlling discounts or loyalty accrual.
// Inactive promotions are excluded from all evaluation.
type Promotion struct {
	TenantID    string `dynamodbav:"tenant_id" json:"tenant_id"`       // PK
	PromotionID string `dynamodbav:"promotion_id" json:"promotion_id"` // SK

	Name     string `dynamodbav:"name" json:"name"`
	Type     Type   `dynamodbav:"type" json:"type"`
	IsActive bool   `dynamodbav:"is_active" json:"is_active"`

	SpecialOffer *SpecialOfferDetails `dynamodbav:"special_offer,omitempty" json:"special_offer,omitempty"`
	Loyalty      *LoyaltyDetails      `dynamodbav:"loyalty,omitempty" json:"loyalty,omitempty"`
	MultiBuy     *MultiBuyDetails     `dynamodbav:"multi_buy,omitempty" json:"multi_buy,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// Progress is a customer's loyalty state, keyed by phone number (the only
// customer identity in the system). Created lazily on first qualifying
// order; mutated only by atomic increments; never deleted.
type Progress struct {
	TenantID string `json:"tenant_id"`
	Phone    string `json:"phone"`

	Points      int64          `json:"points"`
	VisitCounts map[string]int `json:"visit_counts"` // promotion id -> count
}
