package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateboard/plateboard/internal/auth"
	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/floorplan"
	"github.com/plateboard/plateboard/internal/menu"
	"github.com/plateboard/plateboard/internal/orders"
	"github.com/plateboard/plateboard/internal/validation"
)

func (h *Handlers) registerFloorPlanRoutes(api *gin.RouterGroup) {
	api.GET("/floorplan", h.getFloorPlan)
	api.POST("/tables", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.createTable)
	api.PUT("/tables/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.updateTable)
	api.DELETE("/tables/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.deleteTable)
	api.POST("/tables/:id/hint", h.setTableHint)
	api.POST("/tables/:id/complete", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.completeTable)
}

// getFloorPlan resolves the whole floor: per-table status, matching orders,
// aggregated bill, and the occupancy rate.
func (h *Handlers) getFloorPlan(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)

	tables, err := h.floorStore.List(ctx, tenantID)
	if err != nil {
		h.log.WithError(err).Error("list tables failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "floorplan_unavailable"})
		return
	}

	active, ok := h.activeOrders(c, tenantID)
	if !ok {
		return
	}

	views := floorplan.Resolve(tables, active, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"tables":    views,
		"occupancy": floorplan.OccupancyRate(views),
	})
}

func (h *Handlers) createTable(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	var req validation.TableRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	t := floorplan.Table{
		TenantID: tenantID,
		TableID:  uuid.NewString(),
		Label:    req.Label,
		X:        req.X,
		Y:        req.Y,
		Width:    req.Width,
		Height:   req.Height,
		Rotation: req.Rotation,
		Shape:    req.Shape,
	}
	if err := h.floorStore.Put(c.Request.Context(), t); err != nil {
		h.log.WithError(err).Error("create table failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handlers) updateTable(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	tableID := c.Param("id")

	var req validation.TableRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	existing, err := h.floorStore.Get(ctx, tenantID, tableID)
	if err != nil {
		h.log.WithError(err).Error("get table failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "table_unavailable"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table_not_found"})
		return
	}

	existing.Label = req.Label
	existing.X, existing.Y = req.X, req.Y
	existing.Width, existing.Height = req.Width, req.Height
	existing.Rotation = req.Rotation
	existing.Shape = req.Shape

	if err := h.floorStore.Put(ctx, *existing); err != nil {
		h.log.WithError(err).Error("update table failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *Handlers) deleteTable(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	tableID := c.Param("id")

	if err := h.floorStore.Delete(c.Request.Context(), tenantID, tableID); err != nil {
		h.log.WithError(err).Error("delete table failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"table_id": tableID, "deleted": true})
}

// setTableHint stores the advisory status staff set by hand; it only shows
// when no live orders sit on the table.
func (h *Handlers) setTableHint(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	tableID := c.Param("id")

	var req validation.HintRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	hint := floorplan.TableStatus(req.Hint)
	if hint == floorplan.StatusAvailable {
		hint = "" // clearing the hint
	}

	if err := h.floorStore.SetHint(c.Request.Context(), tenantID, tableID, hint); err != nil {
		h.log.WithError(err).Error("set hint failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"table_id": tableID, "hint": req.Hint})
}

// completeTable completes every order grouped under the table in one atomic
// batch: statuses, quantity-weighted stock deductions, and the
// needs_cleaning hint all commit together or not at all.
func (h *Handlers) completeTable(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	tableID := c.Param("id")

	table, err := h.floorStore.Get(ctx, tenantID, tableID)
	if err != nil {
		h.log.WithError(err).Error("get table failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "table_unavailable"})
		return
	}
	if table == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table_not_found"})
		return
	}

	active, ok := h.activeOrders(c, tenantID)
	if !ok {
		return
	}
	group := floorplan.GroupByPlate(active)[floorplan.NewPlateKey(table.Label)]
	if len(group) == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "no_orders_on_table"})
		return
	}

	menuByID, err := h.menuStore.ListByID(ctx, tenantID)
	if err != nil {
		h.log.WithError(err).Error("load menu for deductions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete_failed"})
		return
	}

	orderIDs := make([]string, 0, len(group))
	var allLines []orders.OrderItem
	for _, o := range group {
		orderIDs = append(orderIDs, o.OrderID)
		allLines = append(allLines, o.Items...)
	}
	deductions := toDeductions(menu.RecipeDeductions(allLines, menuByID))

	if err := h.floorStore.CompleteTable(ctx, tenantID, tableID, orderIDs, deductions); err != nil {
		if errors.Is(err, floorplan.ErrCompleteTableCanceled) {
			c.JSON(http.StatusConflict, gin.H{"error": "completion_conflict"})
			return
		}
		h.log.WithError(err).Error("complete table failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete_failed"})
		return
	}

	_ = h.publisher.SendOrderEvent(ctx, aws.OrderEvent{
		Type:        aws.EventTableCompleted,
		TenantID:    tenantID,
		OrderIDs:    orderIDs,
		NewStatus:   string(orders.StatusCompleted),
		PlateNumber: table.Label,
	})
	c.JSON(http.StatusOK, gin.H{"table_id": tableID, "completed_orders": orderIDs})
}
