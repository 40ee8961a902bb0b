package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authclient "github.com/sweetshop/sweetshop-client/internal/auth/client"
	"github.com/sweetshop/sweetshop-client/internal/backend"
	"github.com/sweetshop/sweetshop-client/internal/backend/backendtest"
	"github.com/sweetshop/sweetshop-client/internal/dashboard"
	"github.com/sweetshop/sweetshop-client/internal/dashboard/events"
	invclient "github.com/sweetshop/sweetshop-client/internal/inventory/client"
	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
	"github.com/sweetshop/sweetshop-client/internal/session"
	"github.com/sweetshop/sweetshop-client/internal/session/repository"
	"github.com/sweetshop/sweetshop-client/pkg/httputil"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
	"github.com/sweetshop/sweetshop-client/pkg/messaging"
	"github.com/sweetshop/sweetshop-client/pkg/testutil"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    StateResponse       `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
}

type api struct {
	t       *testing.T
	fb      *backendtest.FakeBackend
	router  http.Handler
	session *session.Store
}

func newAPI(t *testing.T, opts ...dashboard.Option) *api {
	t.Helper()
	log := logger.Nop()

	fb := backendtest.NewSeededBackend(t)
	b := backend.NewClient(fb.URL(), 5*time.Second, log)
	store := session.NewStore(authclient.NewAuthClient(b, log), repository.NewMemoryTokenRepository(), log)
	nav := &dashboard.PendingNavigator{}
	coord := dashboard.New(invclient.NewInventoryClient(b, log), store, nav, log, opts...)
	require.NoError(t, coord.Init(context.Background()))

	h := NewDashboardHandler(coord, store, nav, log)
	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Route("/api/v1", h.Routes)

	return &api{t: t, fb: fb, router: r, session: store}
}

func (a *api) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	rr := testutil.ExecuteRequest(a.router, testutil.NewHTTPRequest(method, path, body))
	var env envelope
	testutil.ParseJSONBody(a.t, rr, &env)
	return rr.Code, env
}

func (a *api) login(user backendtest.FakeUser) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Email: user.Email, Password: user.Password})
	require.Equal(a.t, http.StatusOK, status, "login failed: %+v", env.Error)
}

func TestGet_PublicListing(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodGet, "/api/v1/dashboard", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Len(t, env.Data.View.Items, 4)
	assert.False(t, env.Data.View.Authenticated)
	assert.Equal(t, dashboard.KindIdle, env.Data.View.Workflow.Kind)
	assert.Equal(t, domain.Categories, env.Data.View.Categories)
}

func TestOpen_RequiresLogin(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/api/v1/workflow/purchase/1", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, dashboard.DestinationAuthentication, env.Data.NavigateTo)
	assert.Equal(t, dashboard.KindIdle, env.Data.View.Workflow.Kind)
}

func TestLogin(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Email: "admin@sweetshop.test", Password: "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Bad Credentials", env.Error.Message)
	assert.False(t, a.session.IsAuthenticated())

	status, env = a.do(http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Email: "admin@sweetshop.test"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, session.MsgFillAllFields, env.Error.Message)

	status, env = a.do(http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Email: backendtest.AdminUser.Email, Password: backendtest.AdminUser.Password})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, dashboard.DestinationDashboard, env.Data.NavigateTo)
	assert.True(t, env.Data.View.Authenticated)
	assert.True(t, env.Data.View.Admin)
}

func TestSignup(t *testing.T) {
	a := newAPI(t)

	req := session.SignupRequest{
		Name:            "Meera",
		ContactNumber:   "9876543210",
		Email:           "meera@sweetshop.test",
		Password:        "secret1",
		ConfirmPassword: "secret2",
	}
	status, env := a.do(http.MethodPost, "/api/v1/auth/signup", req)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, session.MsgPasswordsMismatch, env.Error.Message)

	req.ConfirmPassword = req.Password
	status, env = a.do(http.MethodPost, "/api/v1/auth/signup", req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Successfully Registered", env.Data.Message)
	assert.False(t, env.Data.View.Authenticated)
}

func TestSearchAndClear(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/api/v1/dashboard/search", domain.FilterCriteria{Category: "Bengali"})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.Data.View.Items, 1)
	assert.Equal(t, "Rasgulla", env.Data.View.Items[0].Name)
	assert.Equal(t, "Bengali", env.Data.View.Criteria.Category)

	status, env = a.do(http.MethodPost, "/api/v1/dashboard/search/clear", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.Data.View.Items, 4)
	assert.Empty(t, env.Data.View.Criteria.Category)
}

func TestCreateFlow(t *testing.T) {
	a := newAPI(t)
	a.login(backendtest.AdminUser)

	status, _ := a.do(http.MethodPost, "/api/v1/workflow/create", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := a.do(http.MethodPost, "/api/v1/workflow/commit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, dashboard.MsgNameRequired, env.Error.Message)

	status, env = a.do(http.MethodPut, "/api/v1/workflow/draft", domain.ItemDraft{Name: "Jalebi", Category: "Traditional", Price: "15.5", Quantity: "30"})
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Data.View.Workflow.Draft)
	assert.Equal(t, "Jalebi", env.Data.View.Workflow.Draft.Name)

	a.fb.ResetCalls()
	status, env = a.do(http.MethodPost, "/api/v1/workflow/commit", nil)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "Sweet Added Successfully", env.Data.View.SuccessMessage)
	assert.Equal(t, dashboard.KindIdle, env.Data.View.Workflow.Kind)
	assert.Len(t, env.Data.View.Items, 5)
	assert.Equal(t, 1, a.fb.CountCalls(http.MethodPost, "/api/sweets"))
	assert.Equal(t, 1, a.fb.CountCalls(http.MethodGet, "/api/sweets"))
}

func TestPurchaseFlow(t *testing.T) {
	a := newAPI(t)
	a.login(backendtest.ShopUser)

	status, env := a.do(http.MethodPost, "/api/v1/workflow/purchase/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dashboard.DefaultPurchaseQuantity, env.Data.View.Workflow.Quantity)

	status, env = a.do(http.MethodPut, "/api/v1/workflow/quantity", map[string]int{"quantity": 101})
	require.Equal(t, http.StatusOK, status)

	a.fb.ResetCalls()
	status, env = a.do(http.MethodPost, "/api/v1/workflow/commit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, dashboard.MsgInsufficientStock, env.Error.Message)
	assert.Empty(t, a.fb.Calls())

	status, _ = a.do(http.MethodPut, "/api/v1/workflow/quantity", map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(http.MethodPost, "/api/v1/workflow/commit", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Purchase Successful", env.Data.View.SuccessMessage)

	item, ok := a.fb.Item(1)
	require.True(t, ok)
	assert.Equal(t, 97, item.QuantityOnHand)
	assert.Equal(t, 97, env.Data.View.Items[0].QuantityOnHand)
}

func TestCommit_EventCarriesRequestID(t *testing.T) {
	mock := testutil.NewMockPublisher()
	sweetEvents := events.NewSweetEventPublisher(mock, nil, logger.Nop())
	a := newAPI(t, dashboard.WithEventSink(sweetEvents))
	a.login(backendtest.ShopUser)

	status, _ := a.do(http.MethodPost, "/api/v1/workflow/purchase/1", nil)
	require.Equal(t, http.StatusOK, status)

	req := testutil.WithRequestID(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/workflow/commit", nil), "req-purchase-1")
	rr := testutil.ExecuteRequest(a.router, req)
	require.Equal(t, http.StatusOK, rr.Code)
	sweetEvents.Wait()

	published := mock.Events()
	require.Len(t, published, 1)
	assert.Equal(t, messaging.EventSweetPurchased, published[0].Type)
	assert.Equal(t, "req-purchase-1", published[0].CorrelationID)
}

func TestDelete_RejectedForShopUser(t *testing.T) {
	a := newAPI(t)
	a.login(backendtest.ShopUser)

	status, _ := a.do(http.MethodPost, "/api/v1/workflow/delete/2", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := a.do(http.MethodPost, "/api/v1/workflow/commit", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied", env.Error.Message)

	_, env = a.do(http.MethodGet, "/api/v1/dashboard", nil)
	assert.Equal(t, dashboard.KindDeleting, env.Data.View.Workflow.Kind)
	assert.Equal(t, "Access denied", env.Data.View.ErrorMessage)

	status, env = a.do(http.MethodPost, "/api/v1/workflow/cancel", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, dashboard.KindIdle, env.Data.View.Workflow.Kind)
}

func TestWorkflowRequestErrors(t *testing.T) {
	a := newAPI(t)
	a.login(backendtest.AdminUser)

	status, _ := a.do(http.MethodPost, "/api/v1/workflow/edit/99", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(http.MethodPost, "/api/v1/workflow/edit/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := a.do(http.MethodPut, "/api/v1/workflow/quantity", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, env = a.do(http.MethodPut, "/api/v1/workflow/draft", domain.ItemDraft{Name: "x"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_WORKFLOW", env.Error.Code)

	status, _ = a.do(http.MethodPost, "/api/v1/workflow/restock/4", nil)
	require.Equal(t, http.StatusOK, status)
	status, env = a.do(http.MethodPost, "/api/v1/workflow/create", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "WORKFLOW_ACTIVE", env.Error.Code)
}

func TestLogout(t *testing.T) {
	a := newAPI(t)
	a.login(backendtest.AdminUser)
	status, _ := a.do(http.MethodPost, "/api/v1/workflow/edit/1", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := a.do(http.MethodPost, "/api/v1/auth/logout", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, dashboard.DestinationAuthentication, env.Data.NavigateTo)
	assert.False(t, env.Data.View.Authenticated)
	assert.Equal(t, dashboard.KindIdle, env.Data.View.Workflow.Kind)
	assert.Len(t, env.Data.View.Items, 4)
}
