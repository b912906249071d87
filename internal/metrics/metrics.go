package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/plateboard/plateboard/internal/aws"
)

// Publisher pushes board health metrics to CloudWatch, dimensioned by
// tenant.
type Publisher struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewPublisher returns a Publisher for one metric namespace.
func NewPublisher(client aws.CloudWatchAPI, namespace string) *Publisher {
	return &Publisher{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// BoardMetrics is one observation of a tenant's board health.
type BoardMetrics struct {
	TenantID       string
	OccupancyRate  float64 // 0..1
	AttentionCount int
	PrepBacklog    int // undelivered line quantity total
	ActiveOrders   int
}

// Publish sends one PutMetricData call with all four series.
func (p *Publisher) Publish(ctx context.Context, m BoardMetrics) error {
	now := p.nowFunc()
	dims := []cwtypes.Dimension{
		{Name: awsString("TenantId"), Value: &m.TenantID},
	}

	datum := func(name string, value float64, unit cwtypes.StandardUnit) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: &name,
			Value:      &value,
			Unit:       unit,
			Timestamp:  &now,
			Dimensions: dims,
		}
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: &p.namespace,
		MetricData: []cwtypes.MetricDatum{
			datum("OccupancyRate", m.OccupancyRate*100, cwtypes.StandardUnitPercent),
			datum("NeedsAttentionOrders", float64(m.AttentionCount), cwtypes.StandardUnitCount),
			datum("PrepBacklog", float64(m.PrepBacklog), cwtypes.StandardUnitCount),
			datum("ActiveOrders", float64(m.ActiveOrders), cwtypes.StandardUnitCount),
		},
	}

	if _, err := p.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
