package orders

import "time"

// AttentionAge is how long a NEW or IN_PROGRESS order may sit before it is
// flagged for attention.
const AttentionAge = 15 * time.Minute

// legal forward edges, plus the single recall edge READY <- COMPLETED.
// Rejecting a PENDING order deletes it; that is not a transition.
var transitions = map[Status][]Status{
	StatusPending:    {StatusNew},
	StatusNew:        {StatusInProgress},
	StatusInProgress: {StatusReady},
	StatusReady:      {StatusCompleted},
	StatusCompleted:  {StatusReady}, // recall, corrects a premature completion
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusNew, StatusInProgress, StatusReady, StatusCompleted:
		return true
	}
	return false
}

// Classification tags an order for board rendering.
type Classification struct {
	Bucket         Status
	NeedsAttention bool
}

// Classify maps an order and the current wall-clock time to its board bucket
// and attention flag. The flag is advisory only: it affects sort order and
// styling, never the status itself.
func Classify(o *Order, now time.Time) Classification {
	c := Classification{Bucket: o.Status}
	if o.Status == StatusNew || o.Status == StatusInProgress {
		c.NeedsAttention = now.Sub(o.CreatedAt) > AttentionAge
	}
	return c
}
