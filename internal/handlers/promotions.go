package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateboard/plateboard/internal/auth"
	"github.com/plateboard/plateboard/internal/money"
	"github.com/plateboard/plateboard/internal/promotions"
	"github.com/plateboard/plateboard/internal/validation"
)

func (h *Handlers) registerPromotionRoutes(api *gin.RouterGroup) {
	api.GET("/promotions", h.listPromotions)
	api.POST("/promotions", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.createPromotion)
	api.PUT("/promotions/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.updatePromotion)
	api.POST("/promotions/:id/active", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.setPromotionActive)

	api.GET("/loyalty/:phone", h.getLoyaltyProgress)
	api.POST("/loyalty/redeem", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.redeemVisitReward)
	api.POST("/loyalty/redeem-points", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.redeemPointsReward)
}

func (h *Handlers) listPromotions(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	promos, err := h.promoStore.List(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("list promotions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promotions_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotions": promos})
}

func promotionFromRequest(tenantID, promotionID string, req validation.PromotionRequest) promotions.Promotion {
	p := promotions.Promotion{
		TenantID:    tenantID,
		PromotionID: promotionID,
		Name:        req.Name,
		Type:        promotions.Type(req.Type),
		IsActive:    req.IsActive,
	}

	switch p.Type {
	case promotions.TypeSpecialOffer:
		p.SpecialOffer = &promotions.SpecialOfferDetails{
			Percentage:        req.SpecialOffer.Percentage,
			FixedAmount:       money.FromFloat(req.SpecialOffer.FixedAmount),
			ApplicableItemIDs: req.SpecialOffer.ApplicableItemIDs,
		}
	case promotions.TypeLoyalty:
		tiers := make([]promotions.RewardTier, 0, len(req.Loyalty.Tiers))
		for _, t := range req.Loyalty.Tiers {
			tiers = append(tiers, promotions.RewardTier{
				Points:       t.Points,
				RewardItemID: t.RewardItemID,
			})
		}
		p.Loyalty = &promotions.LoyaltyDetails{
			Kind:              promotions.LoyaltyKind(req.Loyalty.Kind),
			VisitGoal:         req.Loyalty.VisitGoal,
			RewardItemID:      req.Loyalty.RewardItemID,
			QualifyingItemIDs: req.Loyalty.QualifyingItemIDs,
			EarnRate:          req.Loyalty.EarnRate,
			Tiers:             tiers,
		}
	case promotions.TypeMultiBuy:
		p.MultiBuy = &promotions.MultiBuyDetails{
			ItemID:       req.MultiBuy.ItemID,
			BuyQuantity:  req.MultiBuy.BuyQuantity,
			FreeQuantity: req.MultiBuy.FreeQuantity,
		}
	}
	return p
}

func (h *Handlers) createPromotion(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	var req validation.PromotionRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	p := promotionFromRequest(tenantID, uuid.NewString(), req)
	if err := h.promoStore.Put(c.Request.Context(), p); err != nil {
		h.log.WithError(err).Error("create promotion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// updatePromotion replaces the rule. The promotion id is stable, so
// customers' visit counters keyed by it survive edits.
func (h *Handlers) updatePromotion(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	promotionID := c.Param("id")

	var req validation.PromotionRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	existing, err := h.promoStore.Get(ctx, tenantID, promotionID)
	if err != nil {
		h.log.WithError(err).Error("get promotion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promotions_unavailable"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promotion_not_found"})
		return
	}

	p := promotionFromRequest(tenantID, promotionID, req)
	p.CreatedAt = existing.CreatedAt

	if err := h.promoStore.Put(ctx, p); err != nil {
		h.log.WithError(err).Error("update promotion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) setPromotionActive(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	promotionID := c.Param("id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.promoStore.SetActive(c.Request.Context(), tenantID, promotionID, req.Active); err != nil {
		h.log.WithError(err).Error("set promotion active failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotion_id": promotionID, "active": req.Active})
}

// getLoyaltyProgress returns a customer's points and per-program visit
// counts, looked up by phone number at the till.
func (h *Handlers) getLoyaltyProgress(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	phone := c.Param("phone")

	prog, err := h.promoStore.GetProgress(c.Request.Context(), tenantID, phone)
	if err != nil {
		h.log.WithError(err).Error("get loyalty progress failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loyalty_unavailable"})
		return
	}
	if prog == nil {
		c.JSON(http.StatusOK, promotions.Progress{
			TenantID:    tenantID,
			Phone:       phone,
			VisitCounts: map[string]int{},
		})
		return
	}
	c.JSON(http.StatusOK, prog)
}

// redeemVisitReward spends a full visit goal against a visit-based program.
// The subtraction is guarded server-side, so two tills redeeming the same
// customer at once cannot both succeed on one goal's worth of visits.
func (h *Handlers) redeemVisitReward(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)

	var req validation.RedeemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	promo, err := h.promoStore.Get(ctx, tenantID, req.PromotionID)
	if err != nil {
		h.log.WithError(err).Error("get promotion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promotions_unavailable"})
		return
	}
	if promo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promotion_not_found"})
		return
	}
	if promo.Type != promotions.TypeLoyalty || promo.Loyalty == nil ||
		promo.Loyalty.Kind != promotions.KindVisitBased {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not_a_visit_program"})
		return
	}

	if err := h.promoStore.RedeemVisits(ctx, tenantID, req.Phone, req.PromotionID, promo.Loyalty.VisitGoal); err != nil {
		if errors.Is(err, promotions.ErrNotEnoughVisits) {
			c.JSON(http.StatusConflict, gin.H{"error": "not_enough_visits"})
			return
		}
		h.log.WithError(err).Error("redeem visits failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "redeem_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"phone":          req.Phone,
		"promotion_id":   req.PromotionID,
		"reward_item_id": promo.Loyalty.RewardItemID,
	})
}

// redeemPointsReward spends a named tier's point cost against a spend-based
// program. The tier must exist on the promotion; the balance check is the
// same guarded subtraction the visit path uses.
func (h *Handlers) redeemPointsReward(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)

	var req validation.RedeemPointsRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	promo, err := h.promoStore.Get(ctx, tenantID, req.PromotionID)
	if err != nil {
		h.log.WithError(err).Error("get promotion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promotions_unavailable"})
		return
	}
	if promo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promotion_not_found"})
		return
	}
	if promo.Type != promotions.TypeLoyalty || promo.Loyalty == nil ||
		promo.Loyalty.Kind != promotions.KindSpendBased {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not_a_spend_program"})
		return
	}

	var tier *promotions.RewardTier
	for i := range promo.Loyalty.Tiers {
		if promo.Loyalty.Tiers[i].Points == req.TierPoints {
			tier = &promo.Loyalty.Tiers[i]
			break
		}
	}
	if tier == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_tier"})
		return
	}

	if err := h.promoStore.RedeemPoints(ctx, tenantID, req.Phone, tier.Points); err != nil {
		if errors.Is(err, promotions.ErrNotEnoughPoints) {
			c.JSON(http.StatusConflict, gin.H{"error": "not_enough_points"})
			return
		}
		h.log.WithError(err).Error("redeem points failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "redeem_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"phone":          req.Phone,
		"promotion_id":   req.PromotionID,
		"points_spent":   tier.Points,
		"reward_item_id": tier.RewardItemID,
	})
}
