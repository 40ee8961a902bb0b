// Package backendtest runs an in-memory SweetShop REST backend for gateway,
// session and dashboard API tests.
package backendtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
)

// FakeUser is an account known to the fake backend
type FakeUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Call records one request the fake backend served
type Call struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]interface{}
}

// FakeBackend is an in-memory SweetShop REST backend for tests
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	items    map[int64]domain.Item
	nextID   int64
	users    map[string]FakeUser
	calls    []Call
	failures map[string]failure
}

type failure struct {
	status  int
	message string
}

// NewFakeBackend starts a fake backend that is shut down with the test
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		items:    make(map[int64]domain.Item),
		nextID:   1,
		users:    make(map[string]FakeUser),
		failures: make(map[string]failure),
	}
	fb.Server = httptest.NewServer(fb.routes())
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the backend base URL
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// AddUser registers an account
func (fb *FakeBackend) AddUser(user FakeUser) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.users[strings.ToLower(user.Email)] = user
}

// AddItem stores an item, assigning an ID when it has none
func (fb *FakeBackend) AddItem(item domain.Item) domain.Item {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if item.ID == 0 {
		item.ID = fb.nextID
	}
	if item.ID >= fb.nextID {
		fb.nextID = item.ID + 1
	}
	fb.items[item.ID] = item
	return item
}

// Item returns the stored item with id
func (fb *FakeBackend) Item(id int64) (domain.Item, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	item, ok := fb.items[id]
	return item, ok
}

// FailNext makes the next request matching method and path (the chi route
// pattern, e.g. "/api/sweets/{id}") answer status with message.
func (fb *FakeBackend) FailNext(method, pattern string, status int, message string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failures[method+" "+pattern] = failure{status: status, message: message}
}

// Calls returns a copy of the recorded requests
func (fb *FakeBackend) Calls() []Call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]Call, len(fb.calls))
	copy(out, fb.calls)
	return out
}

// CountCalls counts recorded requests with method and exact path
func (fb *FakeBackend) CountCalls(method, path string) int {
	n := 0
	for _, c := range fb.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded requests
func (fb *FakeBackend) ResetCalls() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.calls = nil
}

func (fb *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(fb.record)
	r.Use(fb.injectFailures)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", fb.signup)
		r.Post("/login", fb.login)
		r.With(fb.requireToken).Get("/checkToken", fb.checkToken)
	})

	r.Route("/api/sweets", func(r chi.Router) {
		r.Get("/", fb.list)
		r.Get("/search", fb.search)

		r.Group(func(r chi.Router) {
			r.Use(fb.requireToken)
			r.Post("/", fb.create)
			r.Put("/{id}", fb.update)
			r.Post("/{id}/purchase", fb.purchase)
		})

		r.Group(func(r chi.Router) {
			r.Use(fb.requireToken)
			r.Use(fb.requireAdmin)
			r.Delete("/{id}", fb.delete)
			r.Post("/{id}/restock", fb.restock)
		})
	})

	return r
}

func (fb *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			payload, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(payload))
			var body map[string]interface{}
			if len(payload) > 0 && json.Unmarshal(payload, &body) == nil {
				call.Body = body
			}
		}

		fb.mu.Lock()
		fb.calls = append(fb.calls, call)
		fb.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		var matched *failure
		for key, f := range fb.failures {
			method, pattern, _ := strings.Cut(key, " ")
			if method == r.Method && matchPattern(pattern, r.URL.Path) {
				f := f
				matched = &f
				delete(fb.failures, key)
				break
			}
		}
		fb.mu.Unlock()

		if matched != nil {
			writeMessage(w, matched.status, matched.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims, ok := verifyToken(token)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		role, _ := claims["role"].(string)
		r.Header.Set("X-Fake-Role", role)
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.Header.Get("X-Fake-Role"), "admin") {
			writeMessage(w, http.StatusForbidden, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		ContactNumber string `json:"contactNumber"`
		Email         string `json:"email"`
		Password      string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid data")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	key := strings.ToLower(req.Email)
	if _, exists := fb.users[key]; exists {
		writeMessage(w, http.StatusBadRequest, "Email already exists")
		return
	}
	fb.users[key] = FakeUser{Name: req.Name, Email: req.Email, Password: req.Password, Role: "user"}
	writeMessage(w, http.StatusOK, "Successfully Registered")
}

func (fb *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid data")
		return
	}

	fb.mu.Lock()
	user, ok := fb.users[strings.ToLower(req.Email)]
	fb.mu.Unlock()
	if !ok || user.Password != req.Password {
		writeMessage(w, http.StatusBadRequest, "Bad Credentials")
		return
	}

	token, err := signToken(user.Email, user.Role)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (fb *FakeBackend) checkToken(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "true")
}

func (fb *FakeBackend) list(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	writeJSON(w, http.StatusOK, fb.sortedLocked(func(domain.Item) bool { return true }))
}

func (fb *FakeBackend) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.ToLower(q.Get("name"))
	category := q.Get("category")
	minPrice, hasMin := parseFloat(q.Get("minPrice"))
	maxPrice, hasMax := parseFloat(q.Get("maxPrice"))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	writeJSON(w, http.StatusOK, fb.sortedLocked(func(item domain.Item) bool {
		if name != "" && !strings.Contains(strings.ToLower(item.Name), name) {
			return false
		}
		if category != "" && !strings.EqualFold(item.Category, category) {
			return false
		}
		if hasMin && item.UnitPrice < minPrice {
			return false
		}
		if hasMax && item.UnitPrice > maxPrice {
			return false
		}
		return true
	}))
}

func (fb *FakeBackend) create(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid data")
		return
	}

	fb.mu.Lock()
	item := domain.Item{
		ID:             fb.nextID,
		Name:           in.Name,
		Category:       in.Category,
		UnitPrice:      in.Price,
		QuantityOnHand: in.Quantity,
		Description:    in.Description,
	}
	fb.items[item.ID] = item
	fb.nextID++
	fb.mu.Unlock()

	writeMessage(w, http.StatusOK, "Sweet Added Successfully")
}

func (fb *FakeBackend) update(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid data")
		return
	}

	fb.withItem(w, r, func(item *domain.Item) (int, string) {
		item.Name = in.Name
		item.Category = in.Category
		item.UnitPrice = in.Price
		item.QuantityOnHand = in.Quantity
		item.Description = in.Description
		return http.StatusOK, "Sweet Updated Successfully"
	})
}

func (fb *FakeBackend) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, ok := fb.items[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Sweet id does not exist")
		return
	}
	delete(fb.items, id)
	writeMessage(w, http.StatusOK, "Sweet Deleted Successfully")
}

func (fb *FakeBackend) purchase(w http.ResponseWriter, r *http.Request) {
	qty, ok := decodeQuantity(w, r)
	if !ok {
		return
	}
	fb.withItem(w, r, func(item *domain.Item) (int, string) {
		if qty < 1 || qty > item.QuantityOnHand {
			return http.StatusBadRequest, "Insufficient stock"
		}
		item.QuantityOnHand -= qty
		return http.StatusOK, "Purchase Successful"
	})
}

func (fb *FakeBackend) restock(w http.ResponseWriter, r *http.Request) {
	qty, ok := decodeQuantity(w, r)
	if !ok {
		return
	}
	fb.withItem(w, r, func(item *domain.Item) (int, string) {
		if qty < 1 {
			return http.StatusBadRequest, "Invalid quantity"
		}
		item.QuantityOnHand += qty
		return http.StatusOK, "Restock Successful"
	})
}

func (fb *FakeBackend) withItem(w http.ResponseWriter, r *http.Request, fn func(*domain.Item) (int, string)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	item, ok := fb.items[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Sweet id does not exist")
		return
	}
	status, message := fn(&item)
	if status < 300 {
		fb.items[id] = item
	}
	writeMessage(w, status, message)
}

func (fb *FakeBackend) sortedLocked(keep func(domain.Item) bool) []domain.Item {
	out := make([]domain.Item, 0, len(fb.items))
	for _, item := range fb.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func decodeQuantity(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid data")
		return 0, false
	}
	return req.Quantity, true
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// matchPattern compares a chi-style pattern ("/api/sweets/{id}") with a path
func matchPattern(pattern, path string) bool {
	pp := strings.Split(strings.Trim(pattern, "/"), "/")
	sp := strings.Split(strings.Trim(path, "/"), "/")
	if len(pp) != len(sp) {
		return false
	}
	for i := range pp {
		if strings.HasPrefix(pp[i], "{") && strings.HasSuffix(pp[i], "}") {
			continue
		}
		if pp[i] != sp[i] {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	if message == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": message})
}

// String is used in assertion failure output
func (c Call) String() string {
	if c.Query != "" {
		return fmt.Sprintf("%s %s?%s", c.Method, c.Path, c.Query)
	}
	return c.Method + " " + c.Path
}
