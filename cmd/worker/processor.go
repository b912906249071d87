package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/board"
	"github.com/plateboard/plateboard/internal/config"
	"github.com/plateboard/plateboard/internal/floorplan"
	"github.com/plateboard/plateboard/internal/metrics"
	"github.com/plateboard/plateboard/internal/orders"
)

// Processor consumes order lifecycle events and publishes board health
// metrics for each affected tenant. It recomputes from the stores rather
// than trusting event payloads, so replayed or reordered messages converge
// on the same numbers.
type Processor struct {
	log        *logrus.Logger
	orderStore *orders.Store
	floorStore *floorplan.Store
	metricsPub *metrics.Publisher
	nowFunc    func() time.Time
}

// NewProcessor wires the processor off the shared clients.
func NewProcessor(cfg *config.Config, clients *aws.Clients, log *logrus.Logger) *Processor {
	return &Processor{
		log:        log,
		orderStore: orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		floorStore: floorplan.NewStore(clients.DynamoDB, cfg.TablesTable, cfg.OrdersTable, cfg.IngredientsTable),
		metricsPub: metrics.NewPublisher(clients.CloudWatch, cfg.MetricNamespace),
		nowFunc:    time.Now,
	}
}

// Handle processes an SQS batch. A failed message fails the batch so the
// Lambda runtime retries it; poison messages end up on the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	// One recompute per tenant, however many events the batch carries.
	tenants := map[string]bool{}
	for _, rec := range ev.Records {
		var msg aws.OrderEvent
		if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
			return fmt.Errorf("invalid message body: %w", err)
		}
		if msg.TenantID == "" {
			p.log.WithField("body", rec.Body).Warn("event without tenant, skipping")
			continue
		}
		tenants[msg.TenantID] = true
	}

	for tenantID := range tenants {
		if err := p.publishTenantMetrics(ctx, tenantID); err != nil {
			return fmt.Errorf("tenant %s: %w", tenantID, err)
		}
	}
	return nil
}

// publishTenantMetrics derives one BoardMetrics observation from the
// tenant's current state and pushes it to CloudWatch.
func (p *Processor) publishTenantMetrics(ctx context.Context, tenantID string) error {
	active, err := p.orderStore.ListActive(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list active orders: %w", err)
	}

	tables, err := p.floorStore.List(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	now := p.nowFunc()
	attention := 0
	for i := range active {
		if orders.Classify(&active[i], now).NeedsAttention {
			attention++
		}
	}

	backlog := 0
	for _, it := range board.BuildPrepItems(active) {
		backlog += it.TotalQuantity
	}

	views := floorplan.Resolve(tables, active, now)

	m := metrics.BoardMetrics{
		TenantID:       tenantID,
		OccupancyRate:  floorplan.OccupancyRate(views),
		AttentionCount: attention,
		PrepBacklog:    backlog,
		ActiveOrders:   len(active),
	}
	if err := p.metricsPub.Publish(ctx, m); err != nil {
		return fmt.Errorf("publish metrics: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"tenant":          tenantID,
		"active_orders":   m.ActiveOrders,
		"needs_attention": m.AttentionCount,
		"prep_backlog":    m.PrepBacklog,
		"occupancy":       m.OccupancyRate,
	}).Info("published board metrics")
	return nil
}
