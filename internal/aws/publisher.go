package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Order lifecycle event types carried on the queue.
const (
	EventOrderCreated   = "order.created"
	EventOrderStatus    = "order.status_changed"
	EventTableCompleted = "table.completed"
	EventOrderRejected  = "order.rejected"
)

// OrderEvent is the payload sent from API -> SQS -> worker.
type OrderEvent struct {
	Type        string   `json:"type"`
	TenantID    string   `json:"tenant_id"`
	OrderIDs    []string `json:"order_ids"`
	NewStatus   string   `json:"new_status,omitempty"`
	PlateNumber string   `json:"plate_number,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendOrderEvent marshals ev and sends it to the queue. The tenant id and
// event type ride along as message attributes so consumers can filter
// without decoding the body.
func (p *Publisher) SendOrderEvent(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	bodyStr := string(body)

	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    awsString("String"),
				StringValue: &ev.Type,
			},
			"tenant_id": {
				DataType:    awsString("String"),
				StringValue: &ev.TenantID,
			},
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
