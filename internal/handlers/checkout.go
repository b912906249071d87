package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/idempotency"
	"github.com/plateboard/plateboard/internal/menu"
	"github.com/plateboard/plateboard/internal/money"
	"github.com/plateboard/plateboard/internal/orders"
	"github.com/plateboard/plateboard/internal/promotions"
	"github.com/plateboard/plateboard/internal/validation"
)

// platformFeePct is charged on the post-discount subtotal.
const platformFeePct = 2.0

// publicMenu lists the available menu for a scanned QR code, with the
// active discount and multi-buy offers alongside for display.
func (h *Handlers) publicMenu(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant")

	items, err := h.menuStore.List(ctx, tenantID)
	if err != nil {
		h.log.WithError(err).Error("list menu failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "menu_unavailable"})
		return
	}

	available := make([]menu.Item, 0, len(items))
	for _, it := range items {
		if it.IsAvailable {
			// customers never see recipes or stock links
			it.Recipe = nil
			available = append(available, it)
		}
	}

	promos, err := h.promoStore.List(ctx, tenantID)
	if err != nil {
		h.log.WithError(err).Error("list promotions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "menu_unavailable"})
		return
	}
	offers := make([]promotions.Promotion, 0, len(promos))
	for _, p := range promos {
		// loyalty programs are till-side only
		if p.IsActive && p.Type != promotions.TypeLoyalty {
			offers = append(offers, p)
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": available, "offers": offers})
}

// checkout creates an order from a finalized cart: resolves prices from the
// live menu, applies the single best special offer, snapshots everything
// into the order, creates it atomically behind an idempotency key, then
// publishes the created event and records loyalty accrual.
func (h *Handlers) checkout(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant")

	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
		return
	}
	scopedKey := idempotency.ScopedKey(tenantID, idempKey)

	items, cart, err := h.resolveCart(c, tenantID, req.Lines)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cart_resolution_failed", "msg": err.Error()})
		return
	}

	promos, err := h.promoStore.List(ctx, tenantID)
	if err != nil {
		h.log.WithError(err).Error("list promotions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promotions_unavailable"})
		return
	}

	subtotal := promotions.Subtotal(cart)
	discount := promotions.BestSpecialOffer(cart, promos)

	discounted := subtotal
	var applied []orders.AppliedDiscount
	if discount != nil {
		discounted -= discount.Amount
		applied = append(applied, *discount)
	}

	items = appendRewardLines(items, promotions.FreeQuantities(cart, promos))

	tip := money.FromFloat(req.Tip)
	fee := discounted.Percent(platformFeePct)

	// Table orders await staff approval; takeaway/online go straight to NEW.
	status := orders.StatusNew
	if strings.TrimSpace(req.PlateNumber) != "" {
		status = orders.StatusPending
	}

	order := orders.Order{
		TenantID:         tenantID,
		OrderID:          uuid.NewString(),
		Items:            items,
		Status:           status,
		PlateNumber:      strings.TrimSpace(req.PlateNumber),
		StoreID:          req.StoreID,
		Subtotal:         subtotal,
		Tip:              tip,
		PlatformFee:      fee,
		Total:            discounted + tip + fee,
		AppliedDiscounts: applied,
		CustomerPhone:    req.CustomerPhone,
	}

	idempRecord := h.idempStore.NewRecord(scopedKey, order.OrderID)
	if err := h.ordersStore.CreateWithIdempotencyTransaction(ctx, h.cfg.IdempotencyTable, idempRecord, order); err != nil {
		if errors.Is(err, orders.ErrTransactionCanceled) {
			h.replayIdempotent(c, scopedKey)
			return
		}
		h.log.WithError(err).Error("create order failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	if err := h.publisher.SendOrderEvent(ctx, aws.OrderEvent{
		Type:        aws.EventOrderCreated,
		TenantID:    tenantID,
		OrderIDs:    []string{order.OrderID},
		NewStatus:   string(status),
		PlateNumber: order.PlateNumber,
	}); err != nil {
		// The order exists; mark the key failed so a retry is possible.
		_ = h.idempStore.MarkFailed(ctx, scopedKey, fmt.Sprintf("enqueue_failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
		return
	}

	// Loyalty accrual is independent of the discount and keyed by phone; a
	// single ADD upsert per checkout so concurrent orders from the same
	// customer never lose counts.
	if order.CustomerPhone != "" {
		acc := promotions.EvaluateAccrual(cart, promos)
		if err := h.promoStore.ApplyAccrual(ctx, tenantID, order.CustomerPhone, acc); err != nil {
			// accrual failure must not fail the checkout
			h.log.WithError(err).Warn("loyalty accrual failed")
		}
	}

	resp := gin.H{
		"order_id": order.OrderID,
		"status":   order.Status,
		"subtotal": order.Subtotal.Float(),
		"total":    order.Total.Float(),
	}
	body, _ := json.Marshal(resp)
	if err := h.idempStore.MarkDone(ctx, scopedKey, string(body), http.StatusCreated); err != nil {
		// the record stays IN_PROGRESS and replays of this key answer 202
		h.log.WithError(err).WithField("idempotency_key", scopedKey).Warn("mark done failed")
	}

	c.Header("Location", fmt.Sprintf("/t/%s/orders/%s", tenantID, order.OrderID))
	c.JSON(http.StatusCreated, resp)
}

// appendRewardLines adds multi-buy rewards as zero-priced lines so the
// kitchen prepares them without moving the totals. Lines are appended in
// item-id order; identical carts must persist identical tickets.
func appendRewardLines(items []orders.OrderItem, free map[string]int) []orders.OrderItem {
	ids := make([]string, 0, len(free))
	for id := range free {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, itemID := range ids {
		name := itemID
		for i := range items {
			if items[i].MenuItemID == itemID {
				name = items[i].Name
				break
			}
		}
		items = append(items, orders.OrderItem{
			MenuItemID: itemID,
			Name:       name,
			Quantity:   free[itemID],
			UnitPrice:  0,
			Notes:      "multi-buy reward",
		})
	}
	return items
}

// resolveCart loads each cart line's menu item and snapshots name, modifier
// choices and unit price. The snapshots are what the order keeps forever;
// later menu edits never touch them.
func (h *Handlers) resolveCart(c *gin.Context, tenantID string, lines []validation.CheckoutLine) ([]orders.OrderItem, []promotions.CartLine, error) {
	ctx := c.Request.Context()

	items := make([]orders.OrderItem, 0, len(lines))
	cart := make([]promotions.CartLine, 0, len(lines))

	for _, line := range lines {
		it, err := h.menuStore.Get(ctx, tenantID, line.MenuItemID)
		if err != nil {
			return nil, nil, err
		}
		if it == nil || !it.IsAvailable {
			return nil, nil, fmt.Errorf("menu item %s not available", line.MenuItemID)
		}

		sels := make([]menu.Selection, 0, len(line.Selections))
		for _, s := range line.Selections {
			sels = append(sels, menu.Selection{GroupName: s.GroupName, OptionName: s.OptionName})
		}

		unitPrice, mods, err := menu.ResolveUnitPrice(it, sels)
		if err != nil {
			return nil, nil, err
		}

		items = append(items, orders.OrderItem{
			MenuItemID:        it.MenuItemID,
			Name:              it.Name,
			Quantity:          line.Quantity,
			UnitPrice:         unitPrice,
			SelectedModifiers: mods,
			Notes:             line.Notes,
		})
		cart = append(cart, promotions.CartLine{
			MenuItemID: it.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
		})
	}
	return items, cart, nil
}

// replayIdempotent answers a duplicate checkout from the stored idempotency
// record.
func (h *Handlers) replayIdempotent(c *gin.Context, scopedKey string) {
	ctx := c.Request.Context()

	rec, err := h.idempStore.Get(ctx, scopedKey)
	if err != nil || rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "order_id": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}
