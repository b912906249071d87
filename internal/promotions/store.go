package promotions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/plateboard/plateboard/internal/aws"
)

// ErrNotEnoughVisits indicates a visit redemption found fewer visits than
// the promotion's goal.
var ErrNotEnoughVisits = errors.New("not enough visits to redeem")

// ErrNotEnoughPoints is the points-balance analogue for spend-based tiers.
var ErrNotEnoughPoints = errors.New("not enough points to redeem")

// visitAttrPrefix namespaces per-promotion visit counters as top-level
// attributes of the loyalty item, so a single ADD can upsert them without
// a nested-map existence dance.
const visitAttrPrefix = "visits_"

// Store encapsulates the promotions table and the customer loyalty table.
type Store struct {
	client       aws.DynamoDBAPI
	tableName    string
	loyaltyTable string
	nowFunc      func() time.Time
}

// NewStore creates a promotions Store.
func NewStore(client aws.DynamoDBAPI, tableName, loyaltyTable string) *Store {
	return &Store{
		client:       client,
		tableName:    tableName,
		loyaltyTable: loyaltyTable,
		nowFunc:      time.Now,
	}
}

func (s *Store) promoKey(tenantID, promotionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id":    &types.AttributeValueMemberS{Value: tenantID},
		"promotion_id": &types.AttributeValueMemberS{Value: promotionID},
	}
}

func (s *Store) loyaltyKey(tenantID, phone string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
		"phone":     &types.AttributeValueMemberS{Value: phone},
	}
}

// Put creates or replaces a promotion.
func (s *Store) Put(ctx context.Context, p Promotion) error {
	now := s.nowFunc()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal promotion: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put promotion: %w", err)
	}
	return nil
}

// Get fetches one promotion. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, tenantID, promotionID string) (*Promotion, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.promoKey(tenantID, promotionID),
	})
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Promotion
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal promotion: %w", err)
	}
	return &p, nil
}

// List returns the tenant's promotions sorted by creation time then id, so
// the evaluator's first-encountered tie-break is deterministic.
func (s *Store) List(ctx context.Context, tenantID string) ([]Promotion, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("tenant_id = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}

	result := make([]Promotion, 0, len(out.Items))
	for _, raw := range out.Items {
		var p Promotion
		if err := attributevalue.UnmarshalMap(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal promotion: %w", err)
		}
		result = append(result, p)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].PromotionID < result[j].PromotionID
	})
	return result, nil
}

// SetActive flips the active gate on a promotion.
func (s *Store) SetActive(ctx context.Context, tenantID, promotionID string, active bool) error {
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.promoKey(tenantID, promotionID),
		UpdateExpression: awsString("SET is_active = :a, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a":  &types.AttributeValueMemberBOOL{Value: active},
			":ua": &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(promotion_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// ApplyAccrual records a checkout's loyalty earnings in one atomic
// UpdateItem: ADD upserts the customer item if it does not exist and
// increments points plus each qualifying promotion's visit counter without
// reading first, so concurrent orders from the same customer never lose
// updates.
func (s *Store) ApplyAccrual(ctx context.Context, tenantID, phone string, acc Accrual) error {
	if acc.Empty() {
		return nil
	}

	adds := make([]string, 0, 1+len(acc.VisitPromotionIDs))
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if acc.Points != 0 {
		adds = append(adds, "points :p")
		values[":p"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", acc.Points)}
	}
	for i, promoID := range acc.VisitPromotionIDs {
		alias := fmt.Sprintf("#v%d", i)
		adds = append(adds, alias+" :one")
		names[alias] = visitAttrPrefix + promoID
	}
	if len(acc.VisitPromotionIDs) > 0 {
		values[":one"] = &types.AttributeValueMemberN{Value: "1"}
	}

	input := &dyn.UpdateItemInput{
		TableName:                 &s.loyaltyTable,
		Key:                       s.loyaltyKey(tenantID, phone),
		UpdateExpression:          awsString("ADD " + strings.Join(adds, ", ")),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("apply accrual: %w", err)
	}
	return nil
}

// RedeemVisits subtracts exactly the goal from a visit counter, guarded so
// the counter never goes negative. Surplus visits past the goal are kept,
// so accrual continues into the next cycle.
func (s *Store) RedeemVisits(ctx context.Context, tenantID, phone, promotionID string, goal int) error {
	if goal <= 0 {
		return errors.New("redeem goal must be positive")
	}

	input := &dyn.UpdateItemInput{
		TableName:        &s.loyaltyTable,
		Key:              s.loyaltyKey(tenantID, phone),
		UpdateExpression: awsString("ADD #v :neg"),
		ExpressionAttributeNames: map[string]string{
			"#v": visitAttrPrefix + promotionID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":neg":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", -goal)},
			":goal": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", goal)},
		},
		ConditionExpression: awsString("#v >= :goal"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrNotEnoughVisits
		}
		return fmt.Errorf("redeem visits: %w", err)
	}
	return nil
}

// RedeemPoints subtracts points for a spend-based tier, guarded the same way.
func (s *Store) RedeemPoints(ctx context.Context, tenantID, phone string, points int) error {
	if points <= 0 {
		return errors.New("redeem points must be positive")
	}

	input := &dyn.UpdateItemInput{
		TableName:        &s.loyaltyTable,
		Key:              s.loyaltyKey(tenantID, phone),
		UpdateExpression: awsString("ADD points :neg"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":neg": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", -points)},
			":pts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", points)},
		},
		ConditionExpression: awsString("points >= :pts"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrNotEnoughPoints
		}
		return fmt.Errorf("redeem points: %w", err)
	}
	return nil
}

// GetProgress assembles a customer's loyalty state from the raw item.
// Returns (nil, nil) when the customer has no record yet.
func (s *Store) GetProgress(ctx context.Context, tenantID, phone string) (*Progress, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.loyaltyTable,
		Key:       s.loyaltyKey(tenantID, phone),
	})
	if err != nil {
		return nil, fmt.Errorf("get loyalty progress: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	prog := &Progress{
		TenantID:    tenantID,
		Phone:       phone,
		VisitCounts: map[string]int{},
	}
	for name, av := range out.Item {
		n, ok := av.(*types.AttributeValueMemberN)
		if !ok {
			continue
		}
		switch {
		case name == "points":
			fmt.Sscanf(n.Value, "%d", &prog.Points)
		case strings.HasPrefix(name, visitAttrPrefix):
			var count int
			fmt.Sscanf(n.Value, "%d", &count)
			prog.VisitCounts[strings.TrimPrefix(name, visitAttrPrefix)] = count
		}
	}
	return prog, nil
}

func awsString(s string) *string { return &s }
