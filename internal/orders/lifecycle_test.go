package orders

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusNew, true},
		{StatusNew, StatusInProgress, true},
		{StatusInProgress, StatusReady, true},
		{StatusReady, StatusCompleted, true},
		// recall is the only backward edge
		{StatusCompleted, StatusReady, true},
		// skips and reversals are illegal
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusReady, false},
		{StatusPending, StatusCompleted, false},
		{StatusNew, StatusReady, false},
		{StatusNew, StatusPending, false},
		{StatusInProgress, StatusNew, false},
		{StatusInProgress, StatusCompleted, false},
		{StatusReady, StatusInProgress, false},
		{StatusCompleted, StatusNew, false},
		{StatusCompleted, StatusPending, false},
		// unknown statuses never transition
		{Status("BOGUS"), StatusNew, false},
		{StatusNew, Status("BOGUS"), false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusNew, StatusInProgress, StatusReady, StatusCompleted} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("processing").Valid() {
		t.Error("lowercase status should not be valid")
	}
}

func TestClassifyAttentionThreshold(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name   string
		status Status
		age    time.Duration
		want   bool
	}{
		{"new just under threshold", StatusNew, AttentionAge - time.Second, false},
		{"new exactly at threshold", StatusNew, AttentionAge, false},
		{"new past threshold", StatusNew, AttentionAge + time.Second, true},
		{"in_progress past threshold", StatusInProgress, AttentionAge + time.Minute, true},
		{"pending never flagged", StatusPending, 2 * AttentionAge, false},
		{"ready never flagged", StatusReady, 2 * AttentionAge, false},
		{"completed never flagged", StatusCompleted, 2 * AttentionAge, false},
	}

	for _, c := range cases {
		o := &Order{Status: c.status, CreatedAt: now.Add(-c.age)}
		got := Classify(o, now)
		if got.NeedsAttention != c.want {
			t.Errorf("%s: NeedsAttention = %v, want %v", c.name, got.NeedsAttention, c.want)
		}
		if got.Bucket != c.status {
			t.Errorf("%s: Bucket = %s, want %s", c.name, got.Bucket, c.status)
		}
	}
}

func TestOrderActive(t *testing.T) {
	for _, s := range BoardStatuses {
		o := Order{Status: s}
		if !o.Active() {
			t.Errorf("expected %s order to be active", s)
		}
	}
	done := Order{Status: StatusCompleted}
	if done.Active() {
		t.Error("completed order should not be active")
	}
}

func TestOrderIsOnline(t *testing.T) {
	online := Order{}
	if !online.IsOnline() {
		t.Error("order without store should be online")
	}
	physical := Order{StoreID: "store-1"}
	if physical.IsOnline() {
		t.Error("order with store should not be online")
	}
}
