package validation

import "testing"

func validCheckout() CheckoutRequest {
	return CheckoutRequest{
		Lines: []CheckoutLine{{
			MenuItemID: "m1",
			Quantity:   1,
			Selections: []SelectionRequest{{GroupName: "Size", OptionName: "Large"}},
		}},
		PlateNumber:   "T7",
		CustomerPhone: "+96512345678",
	}
}

func TestCheckoutRequestValid(t *testing.T) {
	v := New()
	if err := v.Struct(validCheckout()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckoutRequestRejectsEmptyCart(t *testing.T) {
	v := New()
	req := validCheckout()
	req.Lines = nil
	if err := v.Struct(req); err == nil {
		t.Fatal("expected error for empty cart")
	}
}

func TestCheckoutRequestRejectsBadPhone(t *testing.T) {
	v := New()
	req := validCheckout()
	req.CustomerPhone = "12345678"
	if err := v.Struct(req); err == nil {
		t.Fatal("expected error for non-e164 phone")
	}
}

func TestCheckoutRequestRejectsDuplicateSelection(t *testing.T) {
	v := New()
	req := validCheckout()
	req.Lines[0].Selections = []SelectionRequest{
		{GroupName: "Size", OptionName: "Large"},
		{GroupName: "Size", OptionName: "Large"},
	}
	if err := v.Struct(req); err == nil {
		t.Fatal("expected error for duplicate selection")
	}
}

func TestCheckoutRequestRejectsNegativeTip(t *testing.T) {
	v := New()
	req := validCheckout()
	req.Tip = -1
	if err := v.Struct(req); err == nil {
		t.Fatal("expected error for negative tip")
	}
}

func TestPromotionRequestTaggedUnion(t *testing.T) {
	v := New()

	cases := []struct {
		name    string
		req     PromotionRequest
		wantErr bool
	}{
		{
			"percentage offer",
			PromotionRequest{Name: "10% off", Type: "special_offer",
				SpecialOffer: &SpecialOfferRequest{Percentage: 10}},
			false,
		},
		{
			"fixed offer",
			PromotionRequest{Name: "1.5 off", Type: "special_offer",
				SpecialOffer: &SpecialOfferRequest{FixedAmount: 1.5}},
			false,
		},
		{
			"offer missing details",
			PromotionRequest{Name: "broken", Type: "special_offer"},
			true,
		},
		{
			"offer with both discounts",
			PromotionRequest{Name: "broken", Type: "special_offer",
				SpecialOffer: &SpecialOfferRequest{Percentage: 10, FixedAmount: 1}},
			true,
		},
		{
			"offer with neither discount",
			PromotionRequest{Name: "broken", Type: "special_offer",
				SpecialOffer: &SpecialOfferRequest{}},
			true,
		},
		{
			"visit loyalty",
			PromotionRequest{Name: "stamps", Type: "loyalty",
				Loyalty: &LoyaltyDetailsRequest{Kind: "visit_based", VisitGoal: 10}},
			false,
		},
		{
			"visit loyalty without goal",
			PromotionRequest{Name: "broken", Type: "loyalty",
				Loyalty: &LoyaltyDetailsRequest{Kind: "visit_based"}},
			true,
		},
		{
			"spend loyalty",
			PromotionRequest{Name: "points", Type: "loyalty",
				Loyalty: &LoyaltyDetailsRequest{Kind: "spend_based", EarnRate: 2}},
			false,
		},
		{
			"multi buy",
			PromotionRequest{Name: "3for2", Type: "multi_buy",
				MultiBuy: &MultiBuyRequest{ItemID: "m1", BuyQuantity: 3, FreeQuantity: 1}},
			false,
		},
		{
			"multi buy missing details",
			PromotionRequest{Name: "broken", Type: "multi_buy"},
			true,
		},
		{
			"unknown type",
			PromotionRequest{Name: "broken", Type: "raffle"},
			true,
		},
	}

	for _, c := range cases {
		err := v.Struct(c.req)
		if (err != nil) != c.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", c.name, err, c.wantErr)
		}
	}
}

func TestTableRequestShape(t *testing.T) {
	v := New()
	req := TableRequest{Label: "T1", Width: 2, Height: 2, Shape: "hexagon"}
	if err := v.Struct(req); err == nil {
		t.Fatal("expected error for unknown shape")
	}
	req.Shape = "round"
	if err := v.Struct(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
