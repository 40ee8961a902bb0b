// Package dashboard is the state machine behind the inventory screen.
//
// It owns the working set, the filter, the one open workflow and the
// messages shown to the user. Every accepted mutation is followed by a full
// reload; stock levels are never computed locally.
package dashboard

import (
	"context"
	"net/http"
	"sync"

	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

var (
	// ErrBusy rejects actions while a request is outstanding
	ErrBusy = errors.New("BUSY", "another request is still in progress", http.StatusConflict)
	// ErrWorkflowActive rejects opening a workflow while another is open
	ErrWorkflowActive = errors.New("WORKFLOW_ACTIVE", "close the open workflow first", http.StatusConflict)
	// ErrNoWorkflow rejects draft/quantity edits and commits that match no open workflow
	ErrNoWorkflow = errors.New("NO_WORKFLOW", "no matching workflow is open", http.StatusConflict)
)

// Inventory is the backend's inventory API
type Inventory interface {
	List(ctx context.Context) ([]domain.Item, error)
	Search(ctx context.Context, criteria domain.FilterCriteria) ([]domain.Item, error)
	Create(ctx context.Context, input domain.ItemInput, token string) (string, error)
	Update(ctx context.Context, id int64, input domain.ItemInput, token string) (string, error)
	Delete(ctx context.Context, id int64, token string) (string, error)
	Purchase(ctx context.Context, id int64, quantity int, token string) (string, error)
	Restock(ctx context.Context, id int64, quantity int, token string) (string, error)
}

// Session is the identity the coordinator gates on
type Session interface {
	CurrentToken() string
	IsAuthenticated() bool
	IsAdmin() bool
	Logout(ctx context.Context)
}

// Coordinator drives the dashboard. It is safe for concurrent use; its lock
// is never held across a backend call.
type Coordinator struct {
	inventory Inventory
	session   Session
	navigator Navigator
	events    EventSink
	logger    *logger.Logger

	mu       sync.Mutex
	all      []domain.Item
	display  []domain.Item
	criteria domain.FilterCriteria
	workflow WorkflowState
	loading  bool
	errMsg   string
	okMsg    string
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithEventSink reports accepted mutations to sink
func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) {
		if sink != nil {
			c.events = sink
		}
	}
}

// New creates an idle coordinator with an empty working set
func New(inventory Inventory, session Session, navigator Navigator, log *logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		inventory: inventory,
		session:   session,
		navigator: navigator,
		events:    noopSink{},
		logger:    log.WithComponent("dashboard"),
		workflow:  Idle{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init performs the first load when the dashboard is shown
func (c *Coordinator) Init(ctx context.Context) error {
	c.logger.Debug().
		Bool("authenticated", c.session.IsAuthenticated()).
		Bool("admin", c.session.IsAdmin()).
		Msg("dashboard opened")
	return c.LoadAll(ctx)
}

// LoadAll fetches the unfiltered listing. On failure the previous working
// set stays visible.
func (c *Coordinator) LoadAll(ctx context.Context) error {
	if err := c.startLoad(nil); err != nil {
		return err
	}
	return c.fetchAll(ctx)
}

// ApplyFilter shows the items matching criteria. Criteria that constrain
// nothing are a plain LoadAll, not a search with empty parameters.
func (c *Coordinator) ApplyFilter(ctx context.Context, criteria domain.FilterCriteria) error {
	criteria = criteria.Normalize()
	if err := c.startLoad(&criteria); err != nil {
		return err
	}

	if criteria.IsEmpty() {
		return c.fetchAll(ctx)
	}

	items, err := c.inventory.Search(ctx, criteria)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = MsgSearchFailed
		c.logger.Error().Err(err).Interface("criteria", criteria).Msg("search failed")
		return errors.Wrap(err, "SEARCH_FAILED", MsgSearchFailed, errors.StatusCode(err, http.StatusBadGateway))
	}
	c.display = items
	return nil
}

// ClearFilter forgets the criteria and reloads everything
func (c *Coordinator) ClearFilter(ctx context.Context) error {
	if err := c.startLoad(&domain.FilterCriteria{}); err != nil {
		return err
	}
	return c.fetchAll(ctx)
}

// startLoad marks a user-initiated load as outstanding and clears both
// messages. A non-nil criteria replaces the stored one.
func (c *Coordinator) startLoad(criteria *domain.FilterCriteria) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	if criteria != nil {
		c.criteria = *criteria
	}
	c.loading = true
	c.errMsg = ""
	c.okMsg = ""
	return nil
}

// fetchAll replaces the working set. The caller has set loading; fetchAll
// clears it. The success message is left alone so a commit's confirmation
// survives the reload that follows it.
func (c *Coordinator) fetchAll(ctx context.Context) error {
	items, err := c.inventory.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = MsgLoadFailed
		c.logger.Error().Err(err).Msg("failed to load sweets")
		return errors.Wrap(err, "LOAD_FAILED", MsgLoadFailed, errors.StatusCode(err, http.StatusBadGateway))
	}
	c.all = items
	c.display = items
	c.errMsg = ""
	c.logger.Debug().Int("count", len(items)).Msg("sweets loaded")
	return nil
}

// OpenCreate starts a create workflow with an empty draft
func (c *Coordinator) OpenCreate() error {
	return c.open(Creating{})
}

// OpenEdit starts editing item with a draft copied from it
func (c *Coordinator) OpenEdit(item domain.Item) error {
	return c.open(Editing{Item: item, Draft: domain.DraftFromItem(item)})
}

// OpenDelete asks for confirmation to delete item
func (c *Coordinator) OpenDelete(item domain.Item) error {
	return c.open(Deleting{Item: item})
}

// OpenPurchase starts a purchase of item, one unit by default
func (c *Coordinator) OpenPurchase(item domain.Item) error {
	return c.open(Purchasing{Item: item, Quantity: DefaultPurchaseQuantity})
}

// OpenRestock starts a restock of item, ten units by default
func (c *Coordinator) OpenRestock(item domain.Item) error {
	return c.open(Restocking{Item: item, Quantity: DefaultRestockQuantity})
}

// open enters next from Idle. Without a session nothing opens and the
// navigator is sent to the authentication screen instead.
func (c *Coordinator) open(next WorkflowState) error {
	if !c.session.IsAuthenticated() {
		c.logger.Debug().Str("workflow", string(next.Kind())).Msg("not logged in, redirecting")
		c.navigator.Navigate(DestinationAuthentication)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	if _, idle := c.workflow.(Idle); !idle {
		return ErrWorkflowActive
	}

	c.workflow = next
	c.errMsg = ""
	c.logger.Debug().Str("workflow", string(next.Kind())).Msg("workflow opened")
	return nil
}

// SetDraft replaces the draft of the open create or edit workflow
func (c *Coordinator) SetDraft(draft domain.ItemDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}

	switch w := c.workflow.(type) {
	case Creating:
		w.Draft = draft
		c.workflow = w
	case Editing:
		w.Draft = draft
		c.workflow = w
	default:
		return ErrNoWorkflow
	}
	return nil
}

// SetQuantity replaces the quantity of the open purchase or restock workflow
func (c *Coordinator) SetQuantity(quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}

	switch w := c.workflow.(type) {
	case Purchasing:
		w.Quantity = quantity
		c.workflow = w
	case Restocking:
		w.Quantity = quantity
		c.workflow = w
	default:
		return ErrNoWorkflow
	}
	return nil
}

// Cancel closes the open workflow and discards its draft. No request is made.
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	if _, idle := c.workflow.(Idle); !idle {
		c.logger.Debug().Str("workflow", string(c.workflow.Kind())).Msg("workflow cancelled")
	}
	c.workflow = Idle{}
	return nil
}

// commitPlan is a validated workflow ready to send
type commitPlan struct {
	send     func(ctx context.Context, token string) (string, error)
	success  string
	failure  string
	mutation Mutation
}

// plan validates w and describes the request that commits it
func (c *Coordinator) plan(w WorkflowState) (commitPlan, error) {
	switch s := w.(type) {
	case Creating:
		input, err := ValidateDraft(s.Draft)
		if err != nil {
			return commitPlan{}, err
		}
		return commitPlan{
			send: func(ctx context.Context, token string) (string, error) {
				return c.inventory.Create(ctx, input, token)
			},
			success:  MsgCreated,
			failure:  MsgCreateFailed,
			mutation: Mutation{Kind: MutationCreated, Name: input.Name, Input: &input},
		}, nil

	case Editing:
		input, err := ValidateDraft(s.Draft)
		if err != nil {
			return commitPlan{}, err
		}
		return commitPlan{
			send: func(ctx context.Context, token string) (string, error) {
				return c.inventory.Update(ctx, s.Item.ID, input, token)
			},
			success:  MsgUpdated,
			failure:  MsgUpdateFailed,
			mutation: Mutation{Kind: MutationUpdated, ItemID: s.Item.ID, Name: input.Name, Input: &input},
		}, nil

	case Deleting:
		return commitPlan{
			send: func(ctx context.Context, token string) (string, error) {
				return c.inventory.Delete(ctx, s.Item.ID, token)
			},
			success:  MsgDeleted,
			failure:  MsgDeleteFailed,
			mutation: Mutation{Kind: MutationDeleted, ItemID: s.Item.ID, Name: s.Item.Name},
		}, nil

	case Purchasing:
		if err := validatePurchase(s.Item, s.Quantity); err != nil {
			return commitPlan{}, err
		}
		return commitPlan{
			send: func(ctx context.Context, token string) (string, error) {
				return c.inventory.Purchase(ctx, s.Item.ID, s.Quantity, token)
			},
			success:  MsgPurchased,
			failure:  MsgPurchaseFailed,
			mutation: Mutation{Kind: MutationPurchased, ItemID: s.Item.ID, Name: s.Item.Name, Quantity: s.Quantity},
		}, nil

	case Restocking:
		if err := validateRestock(s.Quantity); err != nil {
			return commitPlan{}, err
		}
		return commitPlan{
			send: func(ctx context.Context, token string) (string, error) {
				return c.inventory.Restock(ctx, s.Item.ID, s.Quantity, token)
			},
			success:  MsgRestocked,
			failure:  MsgRestockFailed,
			mutation: Mutation{Kind: MutationRestocked, ItemID: s.Item.ID, Name: s.Item.Name, Quantity: s.Quantity},
		}, nil

	default:
		return commitPlan{}, ErrNoWorkflow
	}
}

// Commit submits the open workflow.
//
// Pre-flight failures set the error message and make no request. A backend
// rejection keeps the workflow open with the backend's message (or the
// operation's fallback). On success the workflow closes, the success message
// is set, the working set is reloaded exactly once and then the event sink
// is told.
func (c *Coordinator) Commit(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	w := c.workflow
	p, err := c.plan(w)
	if err != nil {
		if errors.IsValidation(err) {
			c.errMsg = errors.UserMessage(err, "")
		}
		c.mu.Unlock()
		return err
	}
	c.loading = true
	c.errMsg = ""
	c.okMsg = ""
	c.mu.Unlock()

	msg, err := p.send(ctx, c.session.CurrentToken())
	if err != nil {
		display := errors.UserMessage(err, p.failure)

		c.mu.Lock()
		c.loading = false
		c.errMsg = display
		c.mu.Unlock()

		c.logger.Warn().Err(err).Str("workflow", string(w.Kind())).Msg("commit rejected")
		return errors.Wrap(err, "COMMIT_FAILED", display, errors.StatusCode(err, http.StatusBadGateway))
	}

	if msg == "" {
		msg = p.success
	}

	c.mu.Lock()
	c.workflow = Idle{}
	c.okMsg = msg
	c.mu.Unlock()

	c.logger.Info().Str("workflow", string(w.Kind())).Str("message", msg).Msg("commit accepted")

	// The mutation stands even if the refresh fails; the view carries the load error.
	if err := c.fetchAll(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("reload after commit failed")
	}

	// The sink runs after the reload, with loading cleared.
	p.mutation.Message = msg
	c.events.MutationCommitted(ctx, p.mutation)
	return nil
}

// Logout ends the session, closes any workflow and sends the navigator to
// the authentication screen. The working set is public and is kept.
func (c *Coordinator) Logout(ctx context.Context) {
	c.session.Logout(ctx)

	c.mu.Lock()
	c.workflow = Idle{}
	c.mu.Unlock()

	c.navigator.Navigate(DestinationAuthentication)
}

// Workflow returns the open workflow
func (c *Coordinator) Workflow() WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workflow
}

// Items returns the displayed items
func (c *Coordinator) Items() []domain.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Item(nil), c.display...)
}

// Find looks an item up in the displayed set, then in the last full listing
func (c *Coordinator) Find(id int64) (domain.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, set := range [][]domain.Item{c.display, c.all} {
		for _, item := range set {
			if item.ID == id {
				return item, true
			}
		}
	}
	return domain.Item{}, false
}
