package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is a minimal in-memory orders table: enough expression
// handling for the guarded writes the store issues, nothing more.
type fakeDynamo struct {
	items       map[string]map[string]types.AttributeValue // order_id -> item
	transactErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamo) put(o Order) {
	item, _ := attributevalue.MarshalMap(o)
	f.items[o.OrderID] = item
}

func keyID(key map[string]types.AttributeValue) string {
	return key["order_id"].(*types.AttributeValueMemberS).Value
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	s, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return s.Value
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, _ ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.items[strAttr(in.Item, "order_id")] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, _ ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	item, ok := f.items[keyID(in.Key)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, _ ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	item, ok := f.items[keyID(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	if in.ConditionExpression != nil && strings.Contains(*in.ConditionExpression, ":expected") {
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		if strAttr(item, "status") != expected {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	if v, ok := in.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if v, ok := in.ExpressionAttributeValues[":u"]; ok {
		item["is_urgent"] = v
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, _ ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	id := keyID(in.Key)
	item, ok := f.items[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if in.ConditionExpression != nil && strings.Contains(*in.ConditionExpression, ":pending") {
		pending := in.ExpressionAttributeValues[":pending"].(*types.AttributeValueMemberS).Value
		if strAttr(item, "status") != pending {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(f.items, id)
	return &dyn.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dyn.QueryInput, _ ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	out := &dyn.QueryOutput{}
	var excluded string
	if v, ok := in.ExpressionAttributeValues[":completed"]; ok && in.FilterExpression != nil &&
		strings.Contains(*in.FilterExpression, "<>") {
		excluded = v.(*types.AttributeValueMemberS).Value
	}
	for _, item := range f.items {
		if excluded != "" && strAttr(item, "status") == excluded {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dyn.ScanInput, _ ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	out := &dyn.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, _ ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	for _, it := range in.TransactItems {
		if it.Put != nil {
			if id := strAttr(it.Put.Item, "order_id"); id != "" {
				f.items[id] = it.Put.Item
			}
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func TestUpdateStatusGuarded(t *testing.T) {
	fake := newFakeDynamo()
	fake.put(Order{TenantID: "t1", OrderID: "o1", Status: StatusNew})
	store := NewStore(fake, "orders")

	if err := store.UpdateStatus(context.Background(), "t1", "o1", StatusNew, StatusInProgress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o, err := store.Get(context.Background(), "t1", "o1")
	if err != nil || o == nil {
		t.Fatalf("get failed: %v", err)
	}
	if o.Status != StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", o.Status)
	}
}

func TestUpdateStatusMismatch(t *testing.T) {
	fake := newFakeDynamo()
	fake.put(Order{TenantID: "t1", OrderID: "o1", Status: StatusReady})
	store := NewStore(fake, "orders")

	// stale client thinks the order is still NEW
	err := store.UpdateStatus(context.Background(), "t1", "o1", StatusNew, StatusInProgress)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}

	o, _ := store.Get(context.Background(), "t1", "o1")
	if o.Status != StatusReady {
		t.Fatalf("status must be untouched, got %s", o.Status)
	}
}

func TestRejectOnlyPending(t *testing.T) {
	fake := newFakeDynamo()
	fake.put(Order{TenantID: "t1", OrderID: "pending", Status: StatusPending})
	fake.put(Order{TenantID: "t1", OrderID: "cooking", Status: StatusInProgress})
	store := NewStore(fake, "orders")

	if err := store.Reject(context.Background(), "t1", "pending"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fake.items["pending"]; ok {
		t.Fatal("pending order should be deleted")
	}

	err := store.Reject(context.Background(), "t1", "cooking")
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
	if _, ok := fake.items["cooking"]; !ok {
		t.Fatal("non-pending order must survive a reject attempt")
	}
}

func TestListActiveExcludesCompleted(t *testing.T) {
	fake := newFakeDynamo()
	fake.put(Order{TenantID: "t1", OrderID: "o1", Status: StatusNew, CreatedAt: time.Now()})
	fake.put(Order{TenantID: "t1", OrderID: "o2", Status: StatusCompleted, CreatedAt: time.Now()})
	store := NewStore(fake, "orders")

	active, err := store.ListActive(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].OrderID != "o1" {
		t.Fatalf("active = %+v", active)
	}
}

func TestCreateWithIdempotencyTransactionCanceled(t *testing.T) {
	fake := newFakeDynamo()
	fake.transactErr = &types.TransactionCanceledException{}
	store := NewStore(fake, "orders")

	err := store.CreateWithIdempotencyTransaction(context.Background(), "idemp",
		map[string]string{"idempotency_key": "k1"},
		Order{TenantID: "t1", OrderID: "o1", Status: StatusNew})
	if !errors.Is(err, ErrTransactionCanceled) {
		t.Fatalf("expected ErrTransactionCanceled, got %v", err)
	}
	if len(fake.items) != 0 {
		t.Fatal("no order may exist after a canceled transaction")
	}
}

func TestCreateWithIdempotencyTransactionWritesOrder(t *testing.T) {
	fake := newFakeDynamo()
	store := NewStore(fake, "orders")

	err := store.CreateWithIdempotencyTransaction(context.Background(), "idemp",
		map[string]string{"idempotency_key": "k1"},
		Order{TenantID: "t1", OrderID: "o1", Status: StatusPending})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o, err := store.Get(context.Background(), "t1", "o1")
	if err != nil || o == nil {
		t.Fatalf("expected stored order, got %v / %v", o, err)
	}
	if o.CreatedAt.IsZero() || o.UpdatedAt.IsZero() {
		t.Error("timestamps should be stamped on create")
	}
}
