package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/plateboard/plateboard/internal/aws"
)

// Store encapsulates operations on the ingredients table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates an inventory Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

func (s *Store) key(tenantID, ingredientID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id":     &types.AttributeValueMemberS{Value: tenantID},
		"ingredient_id": &types.AttributeValueMemberS{Value: ingredientID},
	}
}

// Put creates or replaces an ingredient.
func (s *Store) Put(ctx context.Context, ing Ingredient) error {
	ing.UpdatedAt = s.nowFunc()
	item, err := attributevalue.MarshalMap(ing)
	if err != nil {
		return fmt.Errorf("marshal ingredient: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put ingredient: %w", err)
	}
	return nil
}

// Get fetches one ingredient. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, tenantID, ingredientID string) (*Ingredient, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(tenantID, ingredientID),
	})
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var ing Ingredient
	if err := attributevalue.UnmarshalMap(out.Item, &ing); err != nil {
		return nil, fmt.Errorf("unmarshal ingredient: %w", err)
	}
	return &ing, nil
}

// List returns all ingredients for a tenant.
func (s *Store) List(ctx context.Context, tenantID string) ([]Ingredient, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("tenant_id = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}

	result := make([]Ingredient, 0, len(out.Items))
	for _, item := range out.Items {
		var ing Ingredient
		if err := attributevalue.UnmarshalMap(item, &ing); err != nil {
			return nil, fmt.Errorf("unmarshal ingredient: %w", err)
		}
		result = append(result, ing)
	}
	return result, nil
}

// AdjustStock atomically adds delta (negative to deduct) to the stored
// quantity without reading it first.
func (s *Store) AdjustStock(ctx context.Context, tenantID, ingredientID string, delta float64) error {
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(tenantID, ingredientID),
		UpdateExpression: awsString("SET updated_at = :ua ADD stock_quantity :d"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%g", delta)},
			":ua": &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(ingredient_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
