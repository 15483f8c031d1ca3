package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/pkg/response"
	validatorpkg "github.com/onurcolak/edubot-service/pkg/validator"
)

type fakeQueries struct {
	users      map[string]domain.User
	counts     []domain.StateCount
	err        error
	lastState  *domain.ConversationState
	lastPage   int
	lastSize   int
	lastFailed bool
	lastSince  time.Time
	stats      domain.DeliveryStats
}

func (f *fakeQueries) ListUsers(ctx context.Context, state *domain.ConversationState, page, pageSize int) ([]domain.User, int64, error) {
	f.lastState, f.lastPage, f.lastSize = state, page, pageSize
	if f.err != nil {
		return nil, 0, f.err
	}
	users := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, int64(len(users)), nil
}

func (f *fakeQueries) GetUser(ctx context.Context, phoneNumber string) (*domain.User, []domain.HomeworkSubmission, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	u, ok := f.users[phoneNumber]
	if !ok {
		return nil, nil, nil
	}
	return &u, []domain.HomeworkSubmission{}, nil
}

func (f *fakeQueries) GetUserStats(ctx context.Context) ([]domain.StateCount, error) {
	return f.counts, f.err
}

func (f *fakeQueries) ListDeliveries(ctx context.Context, failedOnly bool, page, pageSize int) ([]domain.Delivery, int64, error) {
	f.lastFailed, f.lastPage, f.lastSize = failedOnly, page, pageSize
	return []domain.Delivery{}, 0, f.err
}

func (f *fakeQueries) GetDeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error) {
	f.lastSince = since
	return f.stats, f.err
}

func newAdminContext(method, target string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validatorpkg.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func TestListUsers_PassesFilterAndPagination(t *testing.T) {
	q := &fakeQueries{users: map[string]domain.User{"1": {PhoneNumber: "1", State: domain.StatePaymentPending}}}
	h := NewUserHandler(q)

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users?state=PAYMENT_PENDING&page=2&pageSize=5")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if q.lastState == nil || *q.lastState != domain.StatePaymentPending {
		t.Fatalf("expected state filter to be passed, got %v", q.lastState)
	}
	if q.lastPage != 2 || q.lastSize != 5 {
		t.Fatalf("expected page 2 size 5, got %d/%d", q.lastPage, q.lastSize)
	}
}

func TestListUsers_UnknownStateIsBadRequest(t *testing.T) {
	h := NewUserHandler(&fakeQueries{})

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users?state=SLEEPING")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestListUsers_BadPageSize(t *testing.T) {
	h := NewUserHandler(&fakeQueries{})

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users?pageSize=500")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetUser_Found(t *testing.T) {
	q := &fakeQueries{users: map[string]domain.User{
		"2348012345678": {PhoneNumber: "2348012345678", FirstName: "Ada", Registered: true, State: domain.StateRegistered},
	}}
	h := NewUserHandler(q)

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users/2348012345678")
	c.SetParamNames("phone")
	c.SetParamValues("2348012345678")

	if err := h.GetUser(c); err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Success bool        `json:"success"`
		Data    UserDetails `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.Data.User == nil || body.Data.User.FirstName != "Ada" {
		t.Fatalf("unexpected user: %+v", body.Data.User)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	h := NewUserHandler(&fakeQueries{users: map[string]domain.User{}})

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users/2348099999999")
	c.SetParamNames("phone")
	c.SetParamValues("2348099999999")

	if err := h.GetUser(c); err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestGetUser_InvalidPhoneIs422(t *testing.T) {
	h := NewUserHandler(&fakeQueries{})

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users/+234-801")
	c.SetParamNames("phone")
	c.SetParamValues("+234-801")

	if err := h.GetUser(c); err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body validatorpkg.ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := body.Details["phone"]; !ok {
		t.Fatalf("expected details for phone, got %v", body.Details)
	}
}

func TestGetUserStats_FillsEveryState(t *testing.T) {
	q := &fakeQueries{counts: []domain.StateCount{
		{State: domain.StateRegistered, Count: 4},
		{State: domain.StateRegisteringName, Count: 2},
	}}
	h := NewUserHandler(q)

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users/stats")
	if err := h.GetUserStats(c); err != nil {
		t.Fatalf("GetUserStats returned error: %v", err)
	}

	var body struct {
		Data struct {
			States map[string]int64 `json:"states"`
			Total  int64            `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(body.Data.States) != len(domain.AllStates) {
		t.Fatalf("expected every state listed, got %v", body.Data.States)
	}
	if body.Data.Total != 6 || body.Data.States["PAYMENT_PENDING"] != 0 {
		t.Fatalf("unexpected stats: %+v", body.Data)
	}
}

func TestGetUserStats_ServiceError(t *testing.T) {
	h := NewUserHandler(&fakeQueries{err: errors.New("db down")})

	_, c, rec := newAdminContext(http.MethodGet, "/api/v1/users/stats")
	if err := h.GetUserStats(c); err != nil {
		t.Fatalf("GetUserStats returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.Error != "db down" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}
