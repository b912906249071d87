// Package handlers wires the HTTP surface: public checkout routes for a
// scanned QR code, and authenticated staff routes for the board, floor
// plan, menu, inventory and promotions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/plateboard/plateboard/internal/auth"
	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/config"
	"github.com/plateboard/plateboard/internal/floorplan"
	"github.com/plateboard/plateboard/internal/idempotency"
	"github.com/plateboard/plateboard/internal/inventory"
	"github.com/plateboard/plateboard/internal/live"
	"github.com/plateboard/plateboard/internal/menu"
	"github.com/plateboard/plateboard/internal/orders"
	"github.com/plateboard/plateboard/internal/promotions"
	"github.com/plateboard/plateboard/internal/validation"
)

// Handlers groups stores and platform dependencies for all route groups.
type Handlers struct {
	cfg *config.Config
	log *logrus.Logger
	v   *validatorv10.Validate

	ordersStore *orders.Store
	idempStore  *idempotency.Store
	floorStore  *floorplan.Store
	menuStore   *menu.Store
	invStore    *inventory.Store
	promoStore  *promotions.Store
	publisher   *aws.Publisher

	// view is non-nil when the live stream subscriber is running; board
	// reads then come from memory instead of a query, but only while
	// viewHealthy reports the subscriber is keeping up.
	view        *live.OrderView
	viewHealthy func() bool
}

// New builds all stores off the shared DynamoDB client. viewHealthy may be
// nil when no view is configured.
func New(cfg *config.Config, clients *aws.Clients, log *logrus.Logger, view *live.OrderView, viewHealthy func() bool) *Handlers {
	return &Handlers{
		cfg:         cfg,
		log:         log,
		v:           validation.New(),
		ordersStore: orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		idempStore:  idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		floorStore:  floorplan.NewStore(clients.DynamoDB, cfg.TablesTable, cfg.OrdersTable, cfg.IngredientsTable),
		menuStore:   menu.NewStore(clients.DynamoDB, cfg.MenuTable),
		invStore:    inventory.NewStore(clients.DynamoDB, cfg.IngredientsTable),
		promoStore:  promotions.NewStore(clients.DynamoDB, cfg.PromotionsTable, cfg.LoyaltyTable),
		publisher:   aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL),
		view:        view,
		viewHealthy: viewHealthy,
	}
}

// Register attaches every route group to the engine.
func (h *Handlers) Register(r *gin.Engine) {
	// Public, customer-facing: the QR code encodes the tenant id.
	pub := r.Group("/t/:tenant")
	pub.GET("/menu", h.publicMenu)
	pub.POST("/checkout", h.checkout)

	// Staff routes; tenant comes from the token, never the path.
	api := r.Group("/api", auth.Middleware(h.cfg.JWTSecret))
	h.registerBoardRoutes(api)
	h.registerFloorPlanRoutes(api)
	h.registerMenuRoutes(api)
	h.registerPromotionRoutes(api)
}

// activeOrders serves the freshest active set available: the live view
// while the stream subscriber is keeping up, otherwise a store query. A
// stalled subscriber must not silently serve a stale board.
func (h *Handlers) activeOrders(c *gin.Context, tenantID string) ([]orders.Order, bool) {
	if h.view != nil && (h.viewHealthy == nil || h.viewHealthy()) {
		return h.view.Active(tenantID), true
	}
	active, err := h.ordersStore.ListActive(c.Request.Context(), tenantID)
	if err != nil {
		h.log.WithError(err).Error("list active orders failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "orders_unavailable"})
		return nil, false
	}
	return active, true
}

func tenantFromClaims(c *gin.Context) string {
	claims := auth.FromContext(c)
	if claims == nil {
		return ""
	}
	return claims.TenantID
}
