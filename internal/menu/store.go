package menu

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/plateboard/plateboard/internal/aws"
)

// Store encapsulates operations on the menu table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a menu Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

func (s *Store) key(tenantID, menuItemID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id":    &types.AttributeValueMemberS{Value: tenantID},
		"menu_item_id": &types.AttributeValueMemberS{Value: menuItemID},
	}
}

// Put creates or replaces a menu item.
func (s *Store) Put(ctx context.Context, it Item) error {
	now := s.nowFunc()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("marshal menu item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put menu item: %w", err)
	}
	return nil
}

// Get fetches one menu item. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, tenantID, menuItemID string) (*Item, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(tenantID, menuItemID),
	})
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it Item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal menu item: %w", err)
	}
	return &it, nil
}

// List returns the tenant's whole menu.
func (s *Store) List(ctx context.Context, tenantID string) ([]Item, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("tenant_id = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}

	result := make([]Item, 0, len(out.Items))
	for _, raw := range out.Items {
		var it Item
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, fmt.Errorf("unmarshal menu item: %w", err)
		}
		result = append(result, it)
	}
	return result, nil
}

// ListByID returns the menu indexed by item id, for recipe lookups.
func (s *Store) ListByID(ctx context.Context, tenantID string) (map[string]Item, error) {
	items, err := s.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.MenuItemID] = it
	}
	return byID, nil
}

// Delete removes a menu item. Placed orders keep their snapshots.
func (s *Store) Delete(ctx context.Context, tenantID, menuItemID string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(tenantID, menuItemID),
	}); err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
