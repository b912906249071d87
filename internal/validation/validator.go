package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation
// registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})
	v.RegisterStructValidation(promotionStructValidation, PromotionRequest{})
	return v
}

// promotionStructValidation enforces the tagged-union shape: the details
// struct matching the declared type must be present and well formed.
func promotionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(PromotionRequest)

	switch req.Type {
	case "special_offer":
		if req.SpecialOffer == nil {
			sl.ReportError(req.SpecialOffer, "special_offer", "SpecialOffer", "required_for_type", req.Type)
			return
		}
		hasPct := req.SpecialOffer.Percentage > 0
		hasFixed := req.SpecialOffer.FixedAmount > 0
		if hasPct == hasFixed {
			sl.ReportError(req.SpecialOffer, "special_offer", "SpecialOffer", "exactly_one_discount", "")
		}
	case "loyalty":
		if req.Loyalty == nil {
			sl.ReportError(req.Loyalty, "loyalty", "Loyalty", "required_for_type", req.Type)
			return
		}
		switch req.Loyalty.Kind {
		case "visit_based":
			if req.Loyalty.VisitGoal <= 0 {
				sl.ReportError(req.Loyalty.VisitGoal, "loyalty.visit_goal", "VisitGoal", "gt", "0")
			}
		case "spend_based":
			if req.Loyalty.EarnRate <= 0 {
				sl.ReportError(req.Loyalty.EarnRate, "loyalty.earn_rate", "EarnRate", "gt", "0")
			}
		}
	case "multi_buy":
		if req.MultiBuy == nil {
			sl.ReportError(req.MultiBuy, "multi_buy", "MultiBuy", "required_for_type", req.Type)
		}
	}
}

// checkoutStructValidation rejects duplicate modifier selections within a
// line: picking the same (group, option) twice is always a client bug and
// would double-charge the option price.
func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)

	for i, line := range req.Lines {
		seen := map[string]bool{}
		for _, sel := range line.Selections {
			key := sel.GroupName + "/" + sel.OptionName
			if seen[key] {
				sl.ReportError(line.Selections, fmt.Sprintf("lines[%d].selections", i), "Selections",
					"duplicate_selection", key)
			}
			seen[key] = true
		}
	}
}
