package promotions

import (
	"math"

	"github.com/plateboard/plateboard/internal/money"
	"github.com/plateboard/plateboard/internal/orders"
)

// CartLine is the evaluator's view of one checkout line: resolved unit
// price, snapshot-ready.
type CartLine struct {
	MenuItemID string
	Quantity   int
	UnitPrice  money.Amount
}

// Subtotal sums the cart lines.
func Subtotal(lines []CartLine) money.Amount {
	var sum money.Amount
	for _, l := range lines {
		sum += l.UnitPrice.MulInt(l.Quantity)
	}
	return sum
}

// applicableSubtotal sums only the lines covered by the offer, or the whole
// cart when the offer declares no restriction.
func applicableSubtotal(lines []CartLine, offer *SpecialOfferDetails) money.Amount {
	if len(offer.ApplicableItemIDs) == 0 {
		return Subtotal(lines)
	}
	covered := make(map[string]bool, len(offer.ApplicableItemIDs))
	for _, id := range offer.ApplicableItemIDs {
		covered[id] = true
	}
	var sum money.Amount
	for _, l := range lines {
		if covered[l.MenuItemID] {
			sum += l.UnitPrice.MulInt(l.Quantity)
		}
	}
	return sum
}

// offerAmount computes the discount one offer yields against the cart.
// Percentage offers take their share of the applicable subtotal; fixed
// offers are capped at it.
func offerAmount(lines []CartLine, offer *SpecialOfferDetails) money.Amount {
	applicable := applicableSubtotal(lines, offer)
	if offer.Percentage > 0 {
		return money.Min(applicable.Percent(offer.Percentage), applicable)
	}
	return money.Min(offer.FixedAmount, applicable)
}

// BestSpecialOffer returns the single discount to apply: the active special
// offer with the largest amount, ties keeping the first encountered in the
// given slice. Offers never stack; the result is nil or exactly one
// discount. Loyalty and multi-buy promotions are skipped here, they do not
// discount the cart at evaluation time.
func BestSpecialOffer(lines []CartLine, promos []Promotion) *orders.AppliedDiscount {
	var best *orders.AppliedDiscount
	for _, p := range promos {
		if !p.IsActive {
			continue
		}
		switch p.Type {
		case TypeSpecialOffer:
			if p.SpecialOffer == nil {
				continue
			}
			amount := offerAmount(lines, p.SpecialOffer)
			if amount <= 0 {
				continue
			}
			if best == nil || amount > best.Amount {
				best = &orders.AppliedDiscount{PromotionName: p.Name, Amount: amount}
			}
		case TypeLoyalty, TypeMultiBuy:
			// not cart discounts
		}
	}
	return best
}

// Accrual is what a checkout earns the customer: points from spend-based
// programs and one visit per qualifying visit-based program.
type Accrual struct {
	Points            int64
	VisitPromotionIDs []string
}

// Empty reports whether the checkout earned nothing.
func (a Accrual) Empty() bool {
	return a.Points == 0 && len(a.VisitPromotionIDs) == 0
}

// EvaluateAccrual computes loyalty accrual for a finalized cart,
// independent of any discount: spend-based programs earn
// floor(subtotal x earnRate) points; each active visit-based program whose
// qualifying item appears in the cart earns one visit.
func EvaluateAccrual(lines []CartLine, promos []Promotion) Accrual {
	var acc Accrual
	subtotal := Subtotal(lines)

	for _, p := range promos {
		if !p.IsActive || p.Type != TypeLoyalty || p.Loyalty == nil {
			continue
		}
		switch p.Loyalty.Kind {
		case KindSpendBased:
			acc.Points += int64(math.Floor(subtotal.Float() * p.Loyalty.EarnRate))
		case KindVisitBased:
			if cartContainsAny(lines, p.Loyalty.QualifyingItemIDs) {
				acc.VisitPromotionIDs = append(acc.VisitPromotionIDs, p.PromotionID)
			}
		}
	}
	return acc
}

func cartContainsAny(lines []CartLine, itemIDs []string) bool {
	if len(itemIDs) == 0 {
		return false
	}
	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	for _, l := range lines {
		if wanted[l.MenuItemID] {
			return true
		}
	}
	return false
}

// FreeQuantities resolves active multi-buy offers against the cart: for
// each buy-N-get-M offer, every full N units of the item earn M free units.
// Free units are presentation only; they never change the snapshot price.
func FreeQuantities(lines []CartLine, promos []Promotion) map[string]int {
	qtyByItem := map[string]int{}
	for _, l := range lines {
		qtyByItem[l.MenuItemID] += l.Quantity
	}

	free := map[string]int{}
	for _, p := range promos {
		if !p.IsActive || p.Type != TypeMultiBuy || p.MultiBuy == nil || p.MultiBuy.BuyQuantity <= 0 {
			continue
		}
		bought := qtyByItem[p.MultiBuy.ItemID]
		if sets := bought / p.MultiBuy.BuyQuantity; sets > 0 {
			free[p.MultiBuy.ItemID] += sets * p.MultiBuy.FreeQuantity
		}
	}
	return free
}
