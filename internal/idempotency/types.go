package idempotency

import "time"

// Status values for idempotency entries.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record is the shape persisted in the idempotency table. Keys are
// tenant-scoped so two tenants reusing the same client key never collide.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK: "<tenant_id>#<client key>"
	Status         string    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"` // small responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// ScopedKey builds the tenant-scoped primary key.
func ScopedKey(tenantID, clientKey string) string {
	return tenantID + "#" + clientKey
}
