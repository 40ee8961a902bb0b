// Package handler exposes the dashboard coordinator to the browser page as
// a small JSON API.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sweetshop/sweetshop-client/internal/dashboard"
	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
	"github.com/sweetshop/sweetshop-client/internal/session"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/httputil"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

// Authenticator is the part of the session store the authentication screen uses
type Authenticator interface {
	Login(ctx context.Context, req session.LoginRequest) (session.Session, error)
	Signup(ctx context.Context, req session.SignupRequest) (string, error)
}

// StateResponse is returned by every successful call
type StateResponse struct {
	View       dashboard.View        `json:"view"`
	NavigateTo dashboard.Destination `json:"navigate_to,omitempty"`
	Message    string                `json:"message,omitempty"`
}

// QuantityRequest sets the quantity of a purchase or restock
type QuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// DashboardHandler handles the local dashboard API
type DashboardHandler struct {
	coordinator *dashboard.Coordinator
	auth        Authenticator
	navigator   *dashboard.PendingNavigator
	logger      *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler. navigator must be the
// one the coordinator was built with.
func NewDashboardHandler(c *dashboard.Coordinator, auth Authenticator, nav *dashboard.PendingNavigator, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		coordinator: c,
		auth:        auth,
		navigator:   nav,
		logger:      log.WithComponent("dashboard-api"),
	}
}

// Routes mounts the API under r
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/reload", h.Reload)
		r.Post("/search", h.Search)
		r.Post("/search/clear", h.ClearSearch)
	})

	r.Route("/workflow", func(r chi.Router) {
		r.Post("/create", h.OpenCreate)
		r.Post("/edit/{id}", h.openFor(h.coordinator.OpenEdit))
		r.Post("/delete/{id}", h.openFor(h.coordinator.OpenDelete))
		r.Post("/purchase/{id}", h.openFor(h.coordinator.OpenPurchase))
		r.Post("/restock/{id}", h.openFor(h.coordinator.OpenRestock))
		r.Put("/draft", h.SetDraft)
		r.Put("/quantity", h.SetQuantity)
		r.Post("/commit", h.Commit)
		r.Post("/cancel", h.Cancel)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)
		r.Post("/logout", h.Logout)
	})
}

// Get returns the current view
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "")
}

// Reload fetches the unfiltered listing
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.result(w, h.coordinator.LoadAll(r.Context()))
}

// Search applies filter criteria
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	var criteria domain.FilterCriteria
	if err := httputil.DecodeJSON(r, &criteria); err != nil {
		httputil.Error(w, err)
		return
	}
	h.result(w, h.coordinator.ApplyFilter(r.Context(), criteria))
}

// ClearSearch drops the criteria and reloads
func (h *DashboardHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	h.result(w, h.coordinator.ClearFilter(r.Context()))
}

// OpenCreate starts a create workflow
func (h *DashboardHandler) OpenCreate(w http.ResponseWriter, r *http.Request) {
	h.result(w, h.coordinator.OpenCreate())
}

// openFor resolves {id} against the working set and opens a workflow on it
func (h *DashboardHandler) openFor(open func(domain.Item) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid sweet id"))
			return
		}

		item, ok := h.coordinator.Find(id)
		if !ok {
			httputil.Error(w, errors.NotFound("sweet"))
			return
		}
		h.result(w, open(item))
	}
}

// SetDraft replaces the create/edit draft
func (h *DashboardHandler) SetDraft(w http.ResponseWriter, r *http.Request) {
	var draft domain.ItemDraft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		httputil.Error(w, err)
		return
	}
	h.result(w, h.coordinator.SetDraft(draft))
}

// SetQuantity replaces the purchase/restock quantity
func (h *DashboardHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}
	h.result(w, h.coordinator.SetQuantity(*req.Quantity))
}

// Commit submits the open workflow
func (h *DashboardHandler) Commit(w http.ResponseWriter, r *http.Request) {
	h.result(w, h.coordinator.Commit(r.Context()))
}

// Cancel closes the open workflow
func (h *DashboardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.result(w, h.coordinator.Cancel())
}

// Login authenticates and sends the page to the dashboard
func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if _, err := h.auth.Login(r.Context(), req); err != nil {
		httputil.Error(w, err)
		return
	}

	h.navigator.Navigate(dashboard.DestinationDashboard)
	if err := h.coordinator.LoadAll(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("reload after login failed")
	}
	h.respond(w, "")
}

// Signup registers an account. The session is not changed.
func (h *DashboardHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req session.SignupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	msg, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	h.respond(w, msg)
}

// Logout ends the session
func (h *DashboardHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Logout(r.Context())
	h.respond(w, "")
}

func (h *DashboardHandler) result(w http.ResponseWriter, err error) {
	if err != nil {
		httputil.Error(w, err)
		return
	}
	h.respond(w, "")
}

func (h *DashboardHandler) respond(w http.ResponseWriter, message string) {
	httputil.JSON(w, http.StatusOK, StateResponse{
		View:       h.coordinator.View(),
		NavigateTo: h.navigator.Take(),
		Message:    message,
	})
}
