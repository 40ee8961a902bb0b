package dashboard

import "github.com/sweetshop/sweetshop-client/internal/inventory/domain"

// Default quantities offered when a quantity workflow opens
const (
	DefaultPurchaseQuantity = 1
	DefaultRestockQuantity  = 10
)

// WorkflowKind names a WorkflowState variant
type WorkflowKind string

const (
	KindIdle       WorkflowKind = "idle"
	KindCreating   WorkflowKind = "creating"
	KindEditing    WorkflowKind = "editing"
	KindDeleting   WorkflowKind = "deleting"
	KindPurchasing WorkflowKind = "purchasing"
	KindRestocking WorkflowKind = "restocking"
)

// WorkflowState is the one user action in progress. The set of
// implementations is closed to this package.
type WorkflowState interface {
	Kind() WorkflowKind
	sealed()
}

// Idle means no workflow is open
type Idle struct{}

// Creating stages a new item
type Creating struct {
	Draft domain.ItemDraft
}

// Editing stages changes to Item
type Editing struct {
	Item  domain.Item
	Draft domain.ItemDraft
}

// Deleting awaits confirmation to remove Item
type Deleting struct {
	Item domain.Item
}

// Purchasing stages a purchase of Quantity units of Item
type Purchasing struct {
	Item     domain.Item
	Quantity int
}

// Restocking stages adding Quantity units to Item
type Restocking struct {
	Item     domain.Item
	Quantity int
}

func (Idle) Kind() WorkflowKind       { return KindIdle }
func (Creating) Kind() WorkflowKind   { return KindCreating }
func (Editing) Kind() WorkflowKind    { return KindEditing }
func (Deleting) Kind() WorkflowKind   { return KindDeleting }
func (Purchasing) Kind() WorkflowKind { return KindPurchasing }
func (Restocking) Kind() WorkflowKind { return KindRestocking }

func (Idle) sealed()       {}
func (Creating) sealed()   {}
func (Editing) sealed()    {}
func (Deleting) sealed()   {}
func (Purchasing) sealed() {}
func (Restocking) sealed() {}

// target returns the item a workflow acts on, if any
func target(w WorkflowState) (domain.Item, bool) {
	switch s := w.(type) {
	case Editing:
		return s.Item, true
	case Deleting:
		return s.Item, true
	case Purchasing:
		return s.Item, true
	case Restocking:
		return s.Item, true
	default:
		return domain.Item{}, false
	}
}
