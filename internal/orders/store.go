package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/plateboard/plateboard/internal/aws"
)

// ErrStatusMismatch indicates a guarded status update found a different
// current status than expected (competing writer or illegal transition).
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrTransactionCanceled indicates an atomic batch was rejected as a unit.
var ErrTransactionCanceled = errors.New("transaction canceled")

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

func (s *Store) key(tenantID, orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
		"order_id":  &types.AttributeValueMemberS{Value: orderID},
	}
}

// CreateWithIdempotencyTransaction atomically creates:
//   - idempotency record in idempotencyTable (ConditionExpression attribute_not_exists(idempotency_key))
//   - the order record in the orders table
//
// in one TransactWriteItems call. idempotencyItem must marshal with an
// idempotency_key attribute present.
func (s *Store) CreateWithIdempotencyTransaction(ctx context.Context, idempotencyTable string, idempotencyItem interface{}, order Order) error {
	idempMap, err := attributevalue.MarshalMap(idempotencyItem)
	if err != nil {
		return fmt.Errorf("marshal idempotency item: %w", err)
	}

	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &idempotencyTable,
					Item:                idempMap,
					ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w (likely idempotency key exists): %v", ErrTransactionCanceled, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, tenantID, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(tenantID, orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListActive returns every non-COMPLETED order for a tenant.
func (s *Store) ListActive(ctx context.Context, tenantID string) ([]Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("tenant_id = :t"),
		FilterExpression:       awsString("#s <> :completed"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":         &types.AttributeValueMemberS{Value: tenantID},
			":completed": &types.AttributeValueMemberS{Value: string(StatusCompleted)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query active orders: %w", err)
	}

	result := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}
	return result, nil
}

// ListActiveAll scans every tenant's non-COMPLETED orders, following
// pagination. Used only to seed the in-memory view at startup; request
// paths stay on per-tenant queries.
func (s *Store) ListActiveAll(ctx context.Context) ([]Order, error) {
	var result []Order
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:        &s.tableName,
			FilterExpression: awsString("#s <> :completed"),
			ExpressionAttributeNames: map[string]string{
				"#s": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":completed": &types.AttributeValueMemberS{Value: string(StatusCompleted)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan active orders: %w", err)
		}
		for _, item := range out.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			result = append(result, o)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return result, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListCompletedSince returns COMPLETED orders newer than the cutoff; the
// rolling recent window the UI keeps after completion.
func (s *Store) ListCompletedSince(ctx context.Context, tenantID string, cutoff time.Time) ([]Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("tenant_id = :t"),
		FilterExpression:       awsString("#s = :completed AND updated_at >= :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":         &types.AttributeValueMemberS{Value: tenantID},
			":completed": &types.AttributeValueMemberS{Value: string(StatusCompleted)},
			":cutoff":    &types.AttributeValueMemberS{Value: cutoff.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query completed orders: %w", err)
	}

	result := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}
	return result, nil
}

// UpdateStatus conditionally updates the order status from expected -> newStatus.
// The condition is the server-side transition guard: a stale or illegal move
// fails with ErrStatusMismatch instead of clobbering a concurrent change.
func (s *Store) UpdateStatus(ctx context.Context, tenantID, orderID string, expected, newStatus Status) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(tenantID, orderID),
		UpdateExpression: awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: string(newStatus)},
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// SetUrgent toggles the urgent flag staff use to float an order to the top
// of its column.
func (s *Store) SetUrgent(ctx context.Context, tenantID, orderID string, urgent bool) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(tenantID, orderID),
		UpdateExpression: awsString("SET is_urgent = :u, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":  &types.AttributeValueMemberBOOL{Value: urgent},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("set urgent: %w", err)
	}
	return nil
}

// SetItemDelivered flips the delivered flag of one line item by index.
// Whole-field last-write-wins: two staff toggling different lines on the
// same order concurrently can lose each other's writes, matching the
// source system's behavior.
func (s *Store) SetItemDelivered(ctx context.Context, tenantID, orderID string, index int, delivered bool) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(tenantID, orderID),
		UpdateExpression: awsString(fmt.Sprintf("SET items[%d].is_delivered = :d, updated_at = :ua", index)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":  &types.AttributeValueMemberBOOL{Value: delivered},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString(fmt.Sprintf("attribute_exists(items[%d])", index)),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return fmt.Errorf("item index %d out of range", index)
		}
		return fmt.Errorf("set item delivered: %w", err)
	}
	return nil
}

// Reject deletes a PENDING order. Rejection removes the order rather than
// transitioning it; the guard refuses to delete anything past PENDING.
func (s *Store) Reject(ctx context.Context, tenantID, orderID string) error {
	input := &dyn.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(tenantID, orderID),
		ConditionExpression: awsString("#s = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(StatusPending)},
		},
	}
	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("reject order: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
