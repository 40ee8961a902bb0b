package dashboard

import (
	"context"

	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
)

// MutationKind names an accepted change to the inventory
type MutationKind string

const (
	MutationCreated   MutationKind = "created"
	MutationUpdated   MutationKind = "updated"
	MutationDeleted   MutationKind = "deleted"
	MutationPurchased MutationKind = "purchased"
	MutationRestocked MutationKind = "restocked"
)

// Mutation describes a change the backend accepted
type Mutation struct {
	Kind MutationKind
	// ItemID is zero for creations
	ItemID   int64
	Name     string
	Input    *domain.ItemInput
	Quantity int
	Message  string
}

// EventSink is told about every accepted mutation once the reload that
// follows it has finished. It cannot fail the commit and should hand slow
// work off rather than block the caller.
type EventSink interface {
	MutationCommitted(ctx context.Context, m Mutation)
}

type noopSink struct{}

func (noopSink) MutationCommitted(context.Context, Mutation) {}
