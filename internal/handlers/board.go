package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plateboard/plateboard/internal/auth"
	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/board"
	"github.com/plateboard/plateboard/internal/floorplan"
	"github.com/plateboard/plateboard/internal/menu"
	"github.com/plateboard/plateboard/internal/orders"
	"github.com/plateboard/plateboard/internal/validation"
)

func (h *Handlers) registerBoardRoutes(api *gin.RouterGroup) {
	api.GET("/board", h.getBoard)
	api.GET("/prep", h.getPrep)
	api.POST("/orders/:id/move", h.moveOrder)
	api.POST("/orders/:id/approve", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.approveOrder)
	api.DELETE("/orders/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.rejectOrder)
	api.POST("/orders/:id/urgent", h.setUrgent)
	api.POST("/orders/:id/delivered", h.setDelivered)
}

// boardCard is one rendered kanban card: the order plus its advisory
// attention flag.
type boardCard struct {
	orders.Order
	NeedsAttention bool `json:"needs_attention"`
}

func toCards(os []orders.Order, now time.Time) []boardCard {
	cards := make([]boardCard, 0, len(os))
	for _, o := range os {
		cards = append(cards, boardCard{
			Order:          o,
			NeedsAttention: orders.Classify(&o, now).NeedsAttention,
		})
	}
	return cards
}

// getBoard returns the four kanban columns, filtered by store and search,
// urgency-sorted.
func (h *Handlers) getBoard(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	active, ok := h.activeOrders(c, tenantID)
	if !ok {
		return
	}

	cols := board.BuildColumns(active, c.Query("store"), c.Query("q"))
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"pending":     toCards(cols.Pending, now),
		"new":         toCards(cols.New, now),
		"in_progress": toCards(cols.InProgress, now),
		"ready":       toCards(cols.Ready, now),
	})
}

// getPrep returns the outstanding prep tickets, grouped and sorted.
func (h *Handlers) getPrep(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	active, ok := h.activeOrders(c, tenantID)
	if !ok {
		return
	}

	filtered := board.Filter(active, c.Query("store"), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"items": board.BuildPrepItems(filtered)})
}

// moveOrder is the drag-and-drop mutation: one guarded status change.
// Kitchen staff cannot move cards; the transition table is enforced here
// and again by the store's conditional write.
func (h *Handlers) moveOrder(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	orderID := c.Param("id")

	var req validation.MoveOrderRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	newStatus := orders.Status(req.NewStatus)

	order, err := h.ordersStore.Get(ctx, tenantID, orderID)
	if err != nil {
		h.log.WithError(err).Error("get order failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order_unavailable"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		return
	}

	claims := auth.FromContext(c)
	if !auth.CanMoveOrder(claims.Role, string(order.Status)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "role_cannot_move_order"})
		return
	}
	if order.Status == newStatus {
		// same-column drop: a pure reorder, never persisted
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": order.Status})
		return
	}
	if !orders.CanTransition(order.Status, newStatus) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "illegal_transition",
			"from":  order.Status,
			"to":    newStatus,
		})
		return
	}

	if newStatus == orders.StatusCompleted {
		if err := h.completeOrder(c, order); err != nil {
			return
		}
	} else {
		if err := h.ordersStore.UpdateStatus(ctx, tenantID, orderID, order.Status, newStatus); err != nil {
			if errors.Is(err, orders.ErrStatusMismatch) {
				c.JSON(http.StatusConflict, gin.H{"error": "concurrent_status_change"})
				return
			}
			h.log.WithError(err).Error("update status failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
			return
		}
	}

	_ = h.publisher.SendOrderEvent(ctx, aws.OrderEvent{
		Type:      aws.EventOrderStatus,
		TenantID:  tenantID,
		OrderIDs:  []string{orderID},
		NewStatus: string(newStatus),
	})
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": newStatus})
}

// completeOrder finishes one order: status to COMPLETED, recipe-linked
// stock deducted, and the matching table's hint set to needs_cleaning, all
// in one batch.
func (h *Handlers) completeOrder(c *gin.Context, order *orders.Order) error {
	ctx := c.Request.Context()

	menuByID, err := h.menuStore.ListByID(ctx, order.TenantID)
	if err != nil {
		h.log.WithError(err).Error("load menu for deductions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete_failed"})
		return err
	}
	deductions := toDeductions(menu.RecipeDeductions(order.Items, menuByID))

	tableID := ""
	if order.PlateNumber != "" {
		if t, err := h.tableByLabel(ctx, order.TenantID, order.PlateNumber); err == nil && t != nil {
			tableID = t.TableID
		}
	}

	if err := h.floorStore.CompleteTable(ctx, order.TenantID, tableID, []string{order.OrderID}, deductions); err != nil {
		if errors.Is(err, floorplan.ErrCompleteTableCanceled) {
			c.JSON(http.StatusConflict, gin.H{"error": "already_completed"})
			return err
		}
		h.log.WithError(err).Error("complete order failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete_failed"})
		return err
	}
	return nil
}

func toDeductions(totals map[string]float64) []floorplan.StockDeduction {
	out := make([]floorplan.StockDeduction, 0, len(totals))
	for id, qty := range totals {
		out = append(out, floorplan.StockDeduction{IngredientID: id, Quantity: qty})
	}
	return out
}

func (h *Handlers) tableByLabel(ctx context.Context, tenantID, label string) (*floorplan.Table, error) {
	tables, err := h.floorStore.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	want := floorplan.NewPlateKey(label)
	for i := range tables {
		if floorplan.NewPlateKey(tables[i].Label) == want {
			return &tables[i], nil
		}
	}
	return nil, nil
}

// approveOrder moves a PENDING table order to NEW.
func (h *Handlers) approveOrder(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	orderID := c.Param("id")

	if err := h.ordersStore.UpdateStatus(ctx, tenantID, orderID, orders.StatusPending, orders.StatusNew); err != nil {
		if errors.Is(err, orders.ErrStatusMismatch) {
			c.JSON(http.StatusConflict, gin.H{"error": "not_pending"})
			return
		}
		h.log.WithError(err).Error("approve failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approve_failed"})
		return
	}

	_ = h.publisher.SendOrderEvent(ctx, aws.OrderEvent{
		Type:      aws.EventOrderStatus,
		TenantID:  tenantID,
		OrderIDs:  []string{orderID},
		NewStatus: string(orders.StatusNew),
	})
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": orders.StatusNew})
}

// rejectOrder deletes a PENDING order outright; rejection is removal, not a
// transition.
func (h *Handlers) rejectOrder(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	orderID := c.Param("id")

	if err := h.ordersStore.Reject(ctx, tenantID, orderID); err != nil {
		if errors.Is(err, orders.ErrStatusMismatch) {
			c.JSON(http.StatusConflict, gin.H{"error": "not_pending"})
			return
		}
		h.log.WithError(err).Error("reject failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reject_failed"})
		return
	}

	_ = h.publisher.SendOrderEvent(ctx, aws.OrderEvent{
		Type:     aws.EventOrderRejected,
		TenantID: tenantID,
		OrderIDs: []string{orderID},
	})
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "deleted": true})
}

// setUrgent toggles the urgency flag that floats a card to the top of its
// column.
func (h *Handlers) setUrgent(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	orderID := c.Param("id")

	var req validation.UrgentRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	if err := h.ordersStore.SetUrgent(c.Request.Context(), tenantID, orderID, req.Urgent); err != nil {
		h.log.WithError(err).Error("set urgent failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "urgent": req.Urgent})
}

// setDelivered toggles one line's delivered flag, feeding the prep view.
func (h *Handlers) setDelivered(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	orderID := c.Param("id")

	var req validation.DeliveredRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	if err := h.ordersStore.SetItemDelivered(c.Request.Context(), tenantID, orderID, req.ItemIndex, req.Delivered); err != nil {
		h.log.WithError(err).Error("set delivered failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "item_index": req.ItemIndex, "delivered": req.Delivered})
}
