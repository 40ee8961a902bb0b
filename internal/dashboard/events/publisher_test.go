package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetshop/sweetshop-client/internal/dashboard"
	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
	"github.com/sweetshop/sweetshop-client/pkg/httputil"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
	"github.com/sweetshop/sweetshop-client/pkg/messaging"
	"github.com/sweetshop/sweetshop-client/pkg/testutil"
)

func TestMutationCommitted_EventTypes(t *testing.T) {
	tests := []struct {
		kind dashboard.MutationKind
		want string
	}{
		{dashboard.MutationCreated, messaging.EventSweetCreated},
		{dashboard.MutationUpdated, messaging.EventSweetUpdated},
		{dashboard.MutationDeleted, messaging.EventSweetDeleted},
		{dashboard.MutationPurchased, messaging.EventSweetPurchased},
		{dashboard.MutationRestocked, messaging.EventSweetRestocked},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			mock := testutil.NewMockPublisher()
			p := NewSweetEventPublisher(mock, nil, logger.Nop())

			p.MutationCommitted(context.Background(), dashboard.Mutation{Kind: tt.kind, ItemID: 3, Name: "Mysore Pak"})
			p.Wait()

			mock.AssertEventPublished(t, tt.want)
		})
	}
}

func TestMutationCommitted_Payload(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewSweetEventPublisher(mock, func() string { return "admin@sweetshop.test" }, logger.Nop())

	p.MutationCommitted(context.Background(), dashboard.Mutation{
		Kind:    dashboard.MutationCreated,
		Name:    "Jalebi",
		Input:   &domain.ItemInput{Name: "Jalebi", Category: "Traditional", Price: 15.5, Quantity: 30},
		Message: "Sweet Added Successfully",
	})
	p.Wait()
	p.MutationCommitted(context.Background(), dashboard.Mutation{
		Kind:     dashboard.MutationPurchased,
		ItemID:   1,
		Name:     "Gulab Jamun",
		Quantity: 3,
		Message:  "Purchase Successful",
	})
	p.Wait()

	events := mock.Events()
	require.Len(t, events, 2)
	assert.Equal(t, messaging.SweetMutationEvent{
		Name:     "Jalebi",
		Category: "Traditional",
		Price:    15.5,
		Quantity: 30,
		Message:  "Sweet Added Successfully",
		Actor:    "admin@sweetshop.test",
	}, events[0].Payload)
	assert.Equal(t, messaging.SweetMutationEvent{
		ItemID:   1,
		Name:     "Gulab Jamun",
		Quantity: 3,
		Message:  "Purchase Successful",
		Actor:    "admin@sweetshop.test",
	}, events[1].Payload)
}

func TestMutationCommitted_FailuresAreSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("channel closed")
	p := NewSweetEventPublisher(mock, nil, logger.Nop())

	assert.NotPanics(t, func() {
		p.MutationCommitted(context.Background(), dashboard.Mutation{Kind: dashboard.MutationDeleted, ItemID: 2})
		p.MutationCommitted(context.Background(), dashboard.Mutation{Kind: "unknown"})
	})
	p.Wait()
	assert.Len(t, mock.Events(), 1)

	var nilPublisher *SweetEventPublisher
	assert.NotPanics(t, func() {
		nilPublisher.MutationCommitted(context.Background(), dashboard.Mutation{Kind: dashboard.MutationCreated})
		nilPublisher.Wait()
	})
}

func TestMutationCommitted_CarriesRequestID(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewSweetEventPublisher(mock, nil, logger.Nop())

	ctx := httputil.WithRequestID(context.Background(), "req-42")
	p.MutationCommitted(ctx, dashboard.Mutation{Kind: dashboard.MutationRestocked, ItemID: 4, Quantity: 10})
	p.MutationCommitted(context.Background(), dashboard.Mutation{Kind: dashboard.MutationDeleted, ItemID: 5})
	p.Wait()

	events := mock.Events()
	require.Len(t, events, 2)

	byType := map[string]string{}
	for _, e := range events {
		byType[e.Type] = e.CorrelationID
	}
	assert.Equal(t, "req-42", byType[messaging.EventSweetRestocked])
	assert.NotEmpty(t, byType[messaging.EventSweetDeleted])
}

// stalledPublisher blocks until its context ends, like a publish stuck in a broker reconnect.
type stalledPublisher struct {
	started chan struct{}
	done    chan error
}

func (s *stalledPublisher) Publish(ctx context.Context, _ string, _ interface{}) error {
	s.started <- struct{}{}
	<-ctx.Done()
	s.done <- ctx.Err()
	return ctx.Err()
}

func TestMutationCommitted_DoesNotWaitForBroker(t *testing.T) {
	stalled := &stalledPublisher{started: make(chan struct{}, 1), done: make(chan error, 1)}
	p := NewSweetEventPublisher(stalled, nil, logger.Nop(), WithPublishTimeout(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		p.MutationCommitted(ctx, dashboard.Mutation{Kind: dashboard.MutationPurchased, ItemID: 1, Quantity: 1})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("MutationCommitted blocked on the broker")
	}

	select {
	case <-stalled.started:
	case <-time.After(time.Second):
		t.Fatal("publish never started")
	}

	// The request ending must not abort the publish; the timeout does.
	cancel()
	p.Wait()
	assert.ErrorIs(t, <-stalled.done, context.DeadlineExceeded)
}
