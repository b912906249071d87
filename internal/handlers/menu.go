package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateboard/plateboard/internal/auth"
	"github.com/plateboard/plateboard/internal/inventory"
	"github.com/plateboard/plateboard/internal/menu"
	"github.com/plateboard/plateboard/internal/money"
	"github.com/plateboard/plateboard/internal/validation"
)

func (h *Handlers) registerMenuRoutes(api *gin.RouterGroup) {
	api.GET("/menu", h.listMenu)
	api.POST("/menu", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.createMenuItem)
	api.PUT("/menu/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.updateMenuItem)
	api.DELETE("/menu/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.deleteMenuItem)

	api.GET("/ingredients", h.listIngredients)
	api.POST("/ingredients", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.createIngredient)
	api.PUT("/ingredients/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.updateIngredient)
	api.POST("/ingredients/:id/adjust", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), h.adjustStock)
}

// listMenu returns the full menu, recipes included; the staff view, unlike
// the public one, shows unavailable items too.
func (h *Handlers) listMenu(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	items, err := h.menuStore.List(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("list menu failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "menu_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func menuItemFromRequest(tenantID, menuItemID string, req validation.MenuItemRequest) menu.Item {
	groups := make([]menu.ModifierGroup, 0, len(req.ModifierGroups))
	for _, g := range req.ModifierGroups {
		opts := make([]menu.ModifierOption, 0, len(g.Options))
		for _, o := range g.Options {
			opts = append(opts, menu.ModifierOption{
				Name:  o.Name,
				Price: money.FromFloat(o.Price),
			})
		}
		groups = append(groups, menu.ModifierGroup{
			Name:     g.Name,
			Required: g.Required,
			MaxPicks: g.MaxPicks,
			Options:  opts,
		})
	}

	recipe := make([]menu.RecipeLink, 0, len(req.Recipe))
	for _, r := range req.Recipe {
		recipe = append(recipe, menu.RecipeLink{
			IngredientID: r.IngredientID,
			Quantity:     r.Quantity,
		})
	}

	return menu.Item{
		TenantID:       tenantID,
		MenuItemID:     menuItemID,
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		BasePrice:      money.FromFloat(req.BasePrice),
		IsAvailable:    req.IsAvailable,
		ModifierGroups: groups,
		Recipe:         recipe,
	}
}

func (h *Handlers) createMenuItem(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	var req validation.MenuItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	it := menuItemFromRequest(tenantID, uuid.NewString(), req)
	if err := h.menuStore.Put(c.Request.Context(), it); err != nil {
		h.log.WithError(err).Error("create menu item failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, it)
}

// updateMenuItem replaces the item wholesale. Orders already placed keep
// their price and name snapshots, so edits never rewrite history.
func (h *Handlers) updateMenuItem(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	menuItemID := c.Param("id")

	var req validation.MenuItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	existing, err := h.menuStore.Get(ctx, tenantID, menuItemID)
	if err != nil {
		h.log.WithError(err).Error("get menu item failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "menu_unavailable"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu_item_not_found"})
		return
	}

	it := menuItemFromRequest(tenantID, menuItemID, req)
	it.CreatedAt = existing.CreatedAt

	if err := h.menuStore.Put(ctx, it); err != nil {
		h.log.WithError(err).Error("update menu item failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *Handlers) deleteMenuItem(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	menuItemID := c.Param("id")

	if err := h.menuStore.Delete(c.Request.Context(), tenantID, menuItemID); err != nil {
		h.log.WithError(err).Error("delete menu item failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_item_id": menuItemID, "deleted": true})
}

// ingredientView adds the computed low-stock flag to the stored fields.
type ingredientView struct {
	inventory.Ingredient
	Low bool `json:"low"`
}

// listIngredients returns the stock list; ?low=true narrows it to
// ingredients at or under their threshold.
func (h *Handlers) listIngredients(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	ings, err := h.invStore.List(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("list ingredients failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inventory_unavailable"})
		return
	}

	lowOnly := c.Query("low") == "true"
	views := make([]ingredientView, 0, len(ings))
	for i := range ings {
		low := ings[i].Low()
		if lowOnly && !low {
			continue
		}
		views = append(views, ingredientView{Ingredient: ings[i], Low: low})
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": views})
}

func (h *Handlers) createIngredient(c *gin.Context) {
	tenantID := tenantFromClaims(c)

	var req validation.IngredientRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	ing := inventory.Ingredient{
		TenantID:      tenantID,
		IngredientID:  uuid.NewString(),
		Name:          req.Name,
		Unit:          req.Unit,
		StockQuantity: req.StockQuantity,
		LowThreshold:  req.LowThreshold,
	}
	if err := h.invStore.Put(c.Request.Context(), ing); err != nil {
		h.log.WithError(err).Error("create ingredient failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, ing)
}

func (h *Handlers) updateIngredient(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := tenantFromClaims(c)
	ingredientID := c.Param("id")

	var req validation.IngredientRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	existing, err := h.invStore.Get(ctx, tenantID, ingredientID)
	if err != nil {
		h.log.WithError(err).Error("get ingredient failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inventory_unavailable"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ingredient_not_found"})
		return
	}

	existing.Name = req.Name
	existing.Unit = req.Unit
	existing.StockQuantity = req.StockQuantity
	existing.LowThreshold = req.LowThreshold

	if err := h.invStore.Put(ctx, *existing); err != nil {
		h.log.WithError(err).Error("update ingredient failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// adjustStock applies a signed delta as an atomic ADD, so a delivery and a
// kitchen deduction racing never lose an update.
func (h *Handlers) adjustStock(c *gin.Context) {
	tenantID := tenantFromClaims(c)
	ingredientID := c.Param("id")

	var req validation.StockAdjustRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	if err := h.invStore.AdjustStock(c.Request.Context(), tenantID, ingredientID, req.Delta); err != nil {
		h.log.WithError(err).Error("adjust stock failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "adjust_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredient_id": ingredientID, "delta": req.Delta})
}
