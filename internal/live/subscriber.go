package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	streams "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/sirupsen/logrus"

	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/orders"
)

// Subscriber polls the orders table's DynamoDB stream and fans decoded
// change batches out to registered handlers. Stream shards close and roll
// over every few hours, so Run keeps re-describing the stream and starts a
// poller for every newly discovered shard; a child shard is polled only
// after its parent is drained so an order's modifications apply in stream
// order. It must be stopped via context cancellation; there is no partial
// teardown.
type Subscriber struct {
	client          aws.StreamsAPI
	streamARN       string
	log             *logrus.Logger
	pollInterval    time.Duration
	refreshInterval time.Duration
	handlers        []Handler

	mu       sync.Mutex
	shards   map[string]chan struct{} // shard id -> closed once drained
	lastSync time.Time
}

// NewSubscriber creates a Subscriber for one stream.
func NewSubscriber(client aws.StreamsAPI, streamARN string, log *logrus.Logger) *Subscriber {
	return &Subscriber{
		client:          client,
		streamARN:       streamARN,
		log:             log,
		pollInterval:    time.Second,
		refreshInterval: 30 * time.Second,
		shards:          map[string]chan struct{}{},
	}
}

// Register adds a handler. Not safe to call after Run has started.
func (s *Subscriber) Register(h Handler) {
	s.handlers = append(s.handlers, h)
}

// Healthy reports whether the shard list was refreshed recently enough for
// the cached view to be trusted. Callers fall back to store queries when it
// is false.
func (s *Subscriber) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastSync.IsZero() && time.Since(s.lastSync) < 3*s.refreshInterval
}

// Run re-describes the stream on every refresh tick and polls each shard
// until the context is cancelled. Each shard is read from TRIM_HORIZON so a
// restarted subscriber rebuilds its view from the retained window.
func (s *Subscriber) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		if err := s.syncShards(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.WithError(err).Warn("describe stream failed, will retry")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// syncShards walks the complete shard list (following LastEvaluatedShardId
// across pages) and starts a poller for every shard not yet seen.
func (s *Subscriber) syncShards(ctx context.Context) error {
	var all []streamtypes.Shard
	var startAfter *string
	for {
		out, err := s.client.DescribeStream(ctx, &streams.DescribeStreamInput{
			StreamArn:             &s.streamARN,
			ExclusiveStartShardId: startAfter,
		})
		if err != nil {
			return fmt.Errorf("describe stream: %w", err)
		}
		all = append(all, out.StreamDescription.Shards...)
		startAfter = out.StreamDescription.LastEvaluatedShardId
		if startAfter == nil {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Register every new shard first so a child discovered in the same
	// sweep as its parent still finds the parent's drain channel.
	fresh := make([]streamtypes.Shard, 0, len(all))
	for _, shard := range all {
		id := *shard.ShardId
		if _, seen := s.shards[id]; seen {
			continue
		}
		s.shards[id] = make(chan struct{})
		fresh = append(fresh, shard)
	}
	for _, shard := range fresh {
		var parent chan struct{}
		if shard.ParentShardId != nil {
			// nil when the parent fell out of the retention window
			parent = s.shards[*shard.ParentShardId]
		}
		go s.pollShard(ctx, *shard.ShardId, parent, s.shards[*shard.ShardId])
	}

	s.lastSync = time.Now()
	return nil
}

func (s *Subscriber) pollShard(ctx context.Context, shardID string, parent <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if parent != nil {
		select {
		case <-ctx.Done():
			return
		case <-parent:
		}
	}

	iterOut, err := s.client.GetShardIterator(ctx, &streams.GetShardIteratorInput{
		StreamArn:         &s.streamARN,
		ShardId:           &shardID,
		ShardIteratorType: streamtypes.ShardIteratorTypeTrimHorizon,
	})
	if err != nil {
		s.log.WithError(err).WithField("shard", shardID).Error("get shard iterator failed")
		return
	}
	iterator := iterOut.ShardIterator

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if iterator == nil {
			// shard closed; its children start once done is closed
			return
		}

		out, err := s.client.GetRecords(ctx, &streams.GetRecordsInput{
			ShardIterator: iterator,
		})
		if err != nil {
			s.log.WithError(err).WithField("shard", shardID).Warn("get records failed, will retry")
			continue
		}
		iterator = out.NextShardIterator

		batch := decodeBatch(out.Records, s.log)
		if len(batch) == 0 {
			continue
		}
		for _, h := range s.handlers {
			h(ctx, batch)
		}
	}
}

func decodeBatch(records []streamtypes.Record, log *logrus.Logger) []Change {
	batch := make([]Change, 0, len(records))
	for _, rec := range records {
		if rec.Dynamodb == nil {
			continue
		}

		var (
			image map[string]streamtypes.AttributeValue
			ctype ChangeType
		)
		switch rec.EventName {
		case streamtypes.OperationTypeInsert:
			ctype, image = ChangeAdd, rec.Dynamodb.NewImage
		case streamtypes.OperationTypeModify:
			ctype, image = ChangeModify, rec.Dynamodb.NewImage
		case streamtypes.OperationTypeRemove:
			ctype, image = ChangeRemove, rec.Dynamodb.OldImage
		default:
			continue
		}
		if image == nil {
			continue
		}

		var o orders.Order
		if err := attributevalue.UnmarshalMap(convertImage(image), &o); err != nil {
			log.WithError(err).Warn("skipping undecodable stream record")
			continue
		}
		batch = append(batch, Change{Type: ctype, Order: o})
	}
	return batch
}
