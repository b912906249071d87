package floorplan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/orders"
)

// ErrCompleteTableCanceled indicates the atomic table-completion batch was
// rejected as a unit; no order, stock or hint change was applied.
var ErrCompleteTableCanceled = errors.New("complete table transaction canceled")

// Store encapsulates operations on the floor-plan tables table and the
// atomic table-completion batch that spans orders, ingredients and the
// table hint.
type Store struct {
	client           aws.DynamoDBAPI
	tableName        string
	ordersTable      string
	ingredientsTable string
	nowFunc          func() time.Time
}

// NewStore creates a floor-plan Store. ordersTable and ingredientsTable are
// needed because CompleteTable writes across all three tables in one batch.
func NewStore(client aws.DynamoDBAPI, tableName, ordersTable, ingredientsTable string) *Store {
	return &Store{
		client:           client,
		tableName:        tableName,
		ordersTable:      ordersTable,
		ingredientsTable: ingredientsTable,
		nowFunc:          time.Now,
	}
}

func (s *Store) key(tenantID, tableID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
		"table_id":  &types.AttributeValueMemberS{Value: tableID},
	}
}

// Put creates or replaces a table definition.
func (s *Store) Put(ctx context.Context, t Table) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put table: %w", err)
	}
	return nil
}

// Get fetches one table. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, tenantID, tableID string) (*Table, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(tenantID, tableID),
	})
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var t Table
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return &t, nil
}

// List returns the tenant's whole floor plan.
func (s *Store) List(ctx context.Context, tenantID string) ([]Table, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("tenant_id = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	result := make([]Table, 0, len(out.Items))
	for _, item := range out.Items {
		var t Table
		if err := attributevalue.UnmarshalMap(item, &t); err != nil {
			return nil, fmt.Errorf("unmarshal table: %w", err)
		}
		result = append(result, t)
	}
	return result, nil
}

// Delete removes a table from the floor plan.
func (s *Store) Delete(ctx context.Context, tenantID, tableID string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(tenantID, tableID),
	}); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return nil
}

// SetHint sets the persisted hint status (seated / needs_cleaning / clear).
func (s *Store) SetHint(ctx context.Context, tenantID, tableID string, hint TableStatus) error {
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(tenantID, tableID),
		UpdateExpression: awsString("SET status_hint = :h"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h": &types.AttributeValueMemberS{Value: string(hint)},
		},
		ConditionExpression: awsString("attribute_exists(table_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("set hint: %w", err)
	}
	return nil
}

// StockDeduction is one quantity-weighted ingredient decrement computed
// across every item of every order grouped under the table.
type StockDeduction struct {
	IngredientID string
	Quantity     float64
}

// CompleteTable completes every order grouped under a table in a single
// TransactWriteItems batch: each order moves to COMPLETED (guarded against
// double completion), each linked ingredient stock is decremented once with
// an atomic ADD, and the table's hint becomes needs_cleaning. Either the
// whole batch commits or nothing does; no partial state is observable.
//
// An empty tableID skips the hint write; online orders complete through the
// same batch without a table.
func (s *Store) CompleteTable(ctx context.Context, tenantID, tableID string, orderIDs []string, deductions []StockDeduction) error {
	if len(orderIDs) == 0 {
		return errors.New("no orders to complete")
	}
	now := s.nowFunc()

	items := make([]types.TransactWriteItem, 0, len(orderIDs)+len(deductions)+1)

	for _, id := range orderIDs {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: &s.ordersTable,
				Key: map[string]types.AttributeValue{
					"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
					"order_id":  &types.AttributeValueMemberS{Value: id},
				},
				UpdateExpression: awsString("SET #s = :completed, updated_at = :ua"),
				ExpressionAttributeNames: map[string]string{
					"#s": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":completed": &types.AttributeValueMemberS{Value: string(orders.StatusCompleted)},
					":ua":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
				},
				ConditionExpression: awsString("attribute_exists(order_id) AND #s <> :completed"),
			},
		})
	}

	// Deterministic deduction order keeps the batch reproducible in tests.
	sort.Slice(deductions, func(i, j int) bool {
		return deductions[i].IngredientID < deductions[j].IngredientID
	})
	for _, d := range deductions {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: &s.ingredientsTable,
				Key: map[string]types.AttributeValue{
					"tenant_id":     &types.AttributeValueMemberS{Value: tenantID},
					"ingredient_id": &types.AttributeValueMemberS{Value: d.IngredientID},
				},
				UpdateExpression: awsString("ADD stock_quantity :neg"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":neg": &types.AttributeValueMemberN{Value: fmt.Sprintf("%g", -d.Quantity)},
				},
			},
		})
	}

	if tableID != "" {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:        &s.tableName,
				Key:              s.key(tenantID, tableID),
				UpdateExpression: awsString("SET status_hint = :h"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":h": &types.AttributeValueMemberS{Value: string(StatusNeedsCleaning)},
				},
				ConditionExpression: awsString("attribute_exists(table_id)"),
			},
		})
	}

	if _, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %v", ErrCompleteTableCanceled, err)
		}
		return fmt.Errorf("complete table transact: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
