package dashboard

import (
	"context"

	"go.uber.org/zap"
)

// ChangeStream is the slice of the store's change-notification primitive the
// adapter consumes. *mongo.ChangeStream satisfies it.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Close(ctx context.Context) error
	Err() error
}

// WatchFunc opens a change stream over the submission collection.
type WatchFunc func(ctx context.Context) (ChangeStream, error)

// Subscription is a handle on a running change-stream listener. Unsubscribe
// detaches the listener; an aggregation already in flight finishes.
type Subscription struct {
	cancel context.CancelFunc
	stream ChangeStream
	done   chan struct{}
}

// Unsubscribe detaches the underlying listener and waits for the loop to end.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	s.stream.Close(context.Background())
	<-s.done
}

// Subscribe re-runs the aggregation whenever the submission collection
// changes and pushes the refreshed stats to the callback. The callback also
// receives one initial snapshot.
func (a *Aggregator) Subscribe(ctx context.Context, watch WatchFunc, callback func(*DashboardStats)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := watch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{
		cancel: cancel,
		stream: stream,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)

		callback(a.Refresh(ctx))
		for stream.Next(ctx) {
			a.Invalidate()
			callback(a.Refresh(ctx))
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			a.logger.Warn("Dashboard change stream ended", zap.Error(err))
		}
	}()

	return sub, nil
}
