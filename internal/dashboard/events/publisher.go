package events

import (
	"context"
	"sync"
	"time"

	"github.com/sweetshop/sweetshop-client/internal/dashboard"
	"github.com/sweetshop/sweetshop-client/pkg/httputil"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
	"github.com/sweetshop/sweetshop-client/pkg/messaging"
)

// DefaultPublishTimeout bounds a single publish, broker reconnects included.
const DefaultPublishTimeout = 5 * time.Second

// SweetEventPublisher forwards accepted dashboard mutations to the event bus.
// Publishing happens in the background; MutationCommitted never blocks on the broker.
type SweetEventPublisher struct {
	publisher messaging.EventPublisher
	actor     func() string
	timeout   time.Duration
	logger    *logger.Logger
	inflight  sync.WaitGroup
}

// Option configures a SweetEventPublisher
type Option func(*SweetEventPublisher)

// WithPublishTimeout overrides DefaultPublishTimeout
func WithPublishTimeout(d time.Duration) Option {
	return func(p *SweetEventPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewSweetEventPublisher wraps publisher. actor, when set, names the user
// behind each mutation.
func NewSweetEventPublisher(publisher messaging.EventPublisher, actor func() string, log *logger.Logger, opts ...Option) *SweetEventPublisher {
	p := &SweetEventPublisher{
		publisher: publisher,
		actor:     actor,
		timeout:   DefaultPublishTimeout,
		logger:    log.WithComponent("sweet-events"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var eventTypes = map[dashboard.MutationKind]string{
	dashboard.MutationCreated:   messaging.EventSweetCreated,
	dashboard.MutationUpdated:   messaging.EventSweetUpdated,
	dashboard.MutationDeleted:   messaging.EventSweetDeleted,
	dashboard.MutationPurchased: messaging.EventSweetPurchased,
	dashboard.MutationRestocked: messaging.EventSweetRestocked,
}

// MutationCommitted publishes m in the background, correlated with the
// request that caused it. Failures are logged and swallowed.
func (p *SweetEventPublisher) MutationCommitted(ctx context.Context, m dashboard.Mutation) {
	if p == nil || p.publisher == nil {
		return
	}

	eventType, ok := eventTypes[m.Kind]
	if !ok {
		p.logger.Warn().Str("kind", string(m.Kind)).Msg("no event type for mutation")
		return
	}

	data := messaging.SweetMutationEvent{
		ItemID:   m.ItemID,
		Name:     m.Name,
		Quantity: m.Quantity,
		Message:  m.Message,
	}
	if m.Input != nil {
		data.Category = m.Input.Category
		data.Price = m.Input.Price
		data.Quantity = m.Input.Quantity
	}
	if p.actor != nil {
		data.Actor = p.actor()
	}

	correlationID := httputil.EnsureRequestID(ctx)
	// Outlives the request; only the timeout ends it.
	pubCtx := messaging.WithCorrelationID(context.WithoutCancel(ctx), correlationID)
	log := p.logger.WithCorrelationID(correlationID)

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()

		pubCtx, cancel := context.WithTimeout(pubCtx, p.timeout)
		defer cancel()

		if err := p.publisher.Publish(pubCtx, eventType, data); err != nil {
			log.Error().Err(err).Str("event_type", eventType).Int64("item_id", m.ItemID).Msg("failed to publish sweet event")
		}
	}()
}

// Wait blocks until every publish started so far has finished or timed out.
func (p *SweetEventPublisher) Wait() {
	if p == nil {
		return
	}
	p.inflight.Wait()
}
