package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/port"
)

const publishTimeout = 5 * time.Second

// AsyncPublisher buffers events in a channel drained by a small worker pool,
// keeping broker latency out of the order path. A full buffer drops the event
// with an error rather than blocking the caller.
type AsyncPublisher struct {
	next   port.EventPublisher
	queue  chan domain.OrderStatusEvent
	wg     sync.WaitGroup
	once   sync.Once
	logger *slog.Logger
}

func NewAsyncPublisher(next port.EventPublisher, queueSize, workers int, logger *slog.Logger) *AsyncPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &AsyncPublisher{
		next:   next,
		queue:  make(chan domain.OrderStatusEvent, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return p
}

func (p *AsyncPublisher) workerLoop(id int) {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.next.PublishOrderStatus(ctx, event); err != nil {
			p.logger.Error("failed to publish order status",
				"worker", id, "order_id", event.OrderID, "error", err)
		}
		cancel()
	}
}

func (p *AsyncPublisher) PublishOrderStatus(_ context.Context, event domain.OrderStatusEvent) error {
	select {
	case p.queue <- event:
		return nil
	default:
		return fmt.Errorf("event queue is full, dropped order %d", event.OrderID)
	}
}

// Close drains buffered events, stops the workers and closes the wrapped
// publisher.
func (p *AsyncPublisher) Close() error {
	p.once.Do(func() { close(p.queue) })
	p.wg.Wait()
	return p.next.Close()
}
