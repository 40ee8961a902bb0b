package dashboard

import (
	"context"
	"sync"

	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
)

type fakeInventory struct {
	mu sync.Mutex

	items      []domain.Item
	searchHits []domain.Item

	listErr   error
	searchErr error
	mutateErr error
	mutateMsg string

	listCalls    int
	searchCalls  int
	mutateCalls  int
	lastOp       string
	lastCriteria domain.FilterCriteria
	lastInput    domain.ItemInput
	lastID       int64
	lastQuantity int
	lastToken    string

	// when set, mutations signal started and wait for release
	started chan struct{}
	release chan struct{}
}

func newFakeInventory(items ...domain.Item) *fakeInventory {
	return &fakeInventory{items: items, mutateMsg: "ok from backend"}
}

func (f *fakeInventory) List(context.Context) ([]domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Item(nil), f.items...), nil
}

func (f *fakeInventory) Search(_ context.Context, criteria domain.FilterCriteria) ([]domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastCriteria = criteria
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]domain.Item(nil), f.searchHits...), nil
}

func (f *fakeInventory) mutate(op string, id int64, input domain.ItemInput, qty int, token string) (string, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutateCalls++
	f.lastOp = op
	f.lastID = id
	f.lastInput = input
	f.lastQuantity = qty
	f.lastToken = token
	if f.mutateErr != nil {
		return "", f.mutateErr
	}
	return f.mutateMsg, nil
}

func (f *fakeInventory) Create(_ context.Context, input domain.ItemInput, token string) (string, error) {
	return f.mutate("create", 0, input, 0, token)
}

func (f *fakeInventory) Update(_ context.Context, id int64, input domain.ItemInput, token string) (string, error) {
	return f.mutate("update", id, input, 0, token)
}

func (f *fakeInventory) Delete(_ context.Context, id int64, token string) (string, error) {
	return f.mutate("delete", id, domain.ItemInput{}, 0, token)
}

func (f *fakeInventory) Purchase(_ context.Context, id int64, quantity int, token string) (string, error) {
	return f.mutate("purchase", id, domain.ItemInput{}, quantity, token)
}

func (f *fakeInventory) Restock(_ context.Context, id int64, quantity int, token string) (string, error) {
	return f.mutate("restock", id, domain.ItemInput{}, quantity, token)
}

func (f *fakeInventory) counts() (list, search, mutate int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.searchCalls, f.mutateCalls
}

type fakeSession struct {
	mu      sync.Mutex
	token   string
	admin   bool
	logouts int
}

func (s *fakeSession) CurrentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) IsAuthenticated() bool { return s.CurrentToken() != "" }

func (s *fakeSession) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.admin
}

func (s *fakeSession) Logout(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.logouts++
}

type recordingSink struct {
	mu        sync.Mutex
	mutations []Mutation
}

func (r *recordingSink) MutationCommitted(_ context.Context, m Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations = append(r.mutations, m)
}

// blockingSink holds MutationCommitted until release is closed
type blockingSink struct {
	entered chan Mutation
	release chan struct{}
}

func (b *blockingSink) MutationCommitted(_ context.Context, m Mutation) {
	b.entered <- m
	<-b.release
}
