package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/offer"
)

type stubDispatchUsecase struct {
	createdFn func(ctx context.Context, id string) (dispatch.Round, error)
	acceptFn  func(ctx context.Context, id, courierRef string) (dispatch.AcceptResult, error)
	rejectFn  func(ctx context.Context, id, courierRef string) (dispatch.Round, error)
	cancelFn  func(ctx context.Context, id string) (offer.Release, error)
	doneFn    func(ctx context.Context, id string) (offer.Release, error)
	onlineFn  func(ctx context.Context, ref string) (dispatch.SweepStats, error)
	offlineFn func(ctx context.Context, ref string) error
	offersFn  func(ctx context.Context, ref string) ([]domain.Order, error)
}

func (s *stubDispatchUsecase) OnOrderCreated(ctx context.Context, id string) (dispatch.Round, error) {
	if s.createdFn == nil {
		panic("OnOrderCreated not expected in this test")
	}
	return s.createdFn(ctx, id)
}

func (s *stubDispatchUsecase) OnAccept(ctx context.Context, id, ref string) (dispatch.AcceptResult, error) {
	if s.acceptFn == nil {
		panic("OnAccept not expected in this test")
	}
	return s.acceptFn(ctx, id, ref)
}

func (s *stubDispatchUsecase) OnReject(ctx context.Context, id, ref string) (dispatch.Round, error) {
	if s.rejectFn == nil {
		panic("OnReject not expected in this test")
	}
	return s.rejectFn(ctx, id, ref)
}

func (s *stubDispatchUsecase) Cancel(ctx context.Context, id string) (offer.Release, error) {
	if s.cancelFn == nil {
		panic("Cancel not expected in this test")
	}
	return s.cancelFn(ctx, id)
}

func (s *stubDispatchUsecase) Complete(ctx context.Context, id string) (offer.Release, error) {
	if s.doneFn == nil {
		panic("Complete not expected in this test")
	}
	return s.doneFn(ctx, id)
}

func (s *stubDispatchUsecase) OnCourierOnline(ctx context.Context, ref string) (dispatch.SweepStats, error) {
	if s.onlineFn == nil {
		panic("OnCourierOnline not expected in this test")
	}
	return s.onlineFn(ctx, ref)
}

func (s *stubDispatchUsecase) OnCourierOffline(ctx context.Context, ref string) error {
	if s.offlineFn == nil {
		panic("OnCourierOffline not expected in this test")
	}
	return s.offlineFn(ctx, ref)
}

func (s *stubDispatchUsecase) ListAvailableOffers(ctx context.Context, ref string) ([]domain.Order, error) {
	if s.offersFn == nil {
		panic("ListAvailableOffers not expected in this test")
	}
	return s.offersFn(ctx, ref)
}

func withID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestDispatchHandler_Accept_OK(t *testing.T) {
	t.Parallel()

	accepted := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	group := "g-1"
	winner := domain.CourierID("c-a")
	uc := &stubDispatchUsecase{
		acceptFn: func(_ context.Context, id, ref string) (dispatch.AcceptResult, error) {
			require.Equal(t, "o-1", id)
			require.Equal(t, "fb-a", ref)
			return dispatch.AcceptResult{
				CourierID: winner,
				Orders: []domain.Order{{
					ID:               "o-1",
					GroupID:          &group,
					Status:           domain.OrderAccepted,
					AssignmentStatus: domain.AssignmentAssigned,
					AssignedCourier:  &winner,
					OfferedTo:        &winner,
					AcceptedAt:       &accepted,
					CreatedAt:        accepted,
				}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/orders/o-1/accept", strings.NewReader(`{"courier_id":"fb-a"}`))
	req = withID(req, "o-1")
	rr := httptest.NewRecorder()

	NewDispatchHandler(logx.Nop(), uc).Accept(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"courier_id": "c-a",
		"assigned_orders": [{
			"id": "o-1",
			"group_id": "g-1",
			"status": "accepted",
			"assignment_status": "assigned",
			"offered_to": "c-a",
			"assigned_courier": "c-a",
			"created_at": "2025-01-02T03:04:05Z"
		}]
	}`, rr.Body.String())
}

func TestDispatchHandler_Accept_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{apperr.ErrInvalid, http.StatusBadRequest},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrNotEligible, http.StatusForbidden},
		{fmt.Errorf("accept: %w", apperr.ErrAlreadyAssigned), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		uc := &stubDispatchUsecase{
			acceptFn: func(context.Context, string, string) (dispatch.AcceptResult, error) {
				return dispatch.AcceptResult{}, tc.err
			},
		}
		req := withID(httptest.NewRequest(http.MethodPost, "/orders/o-1/accept", strings.NewReader(`{"courier_id":"c"}`)), "o-1")
		rr := httptest.NewRecorder()

		NewDispatchHandler(logx.Nop(), uc).Accept(rr, req)

		assert.Equal(t, tc.code, rr.Code, tc.err.Error())
	}
}

func TestDispatchHandler_Accept_MissingCourier(t *testing.T) {
	t.Parallel()

	h := NewDispatchHandler(logx.Nop(), &stubDispatchUsecase{})

	for _, body := range []string{`{}`, `{"courier_id":"c",`, `{"courier":"c"}`} {
		req := withID(httptest.NewRequest(http.MethodPost, "/orders/o-1/accept", strings.NewReader(body)), "o-1")
		rr := httptest.NewRecorder()
		h.Accept(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestDispatchHandler_Reject_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		rejectFn: func(_ context.Context, id, ref string) (dispatch.Round, error) {
			require.Equal(t, "o-1", id)
			require.Equal(t, "fb-a", ref)
			return dispatch.Round{Outcome: dispatch.OutcomeOpened}, nil
		},
	}
	req := withID(httptest.NewRequest(http.MethodPost, "/orders/o-1/reject", strings.NewReader(`{"courier_id":"fb-a"}`)), "o-1")
	rr := httptest.NewRecorder()

	NewDispatchHandler(logx.Nop(), uc).Reject(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"rejected"}`, rr.Body.String())
}

func TestDispatchHandler_Dispatch_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		createdFn: func(_ context.Context, id string) (dispatch.Round, error) {
			require.Equal(t, "g-1", id)
			return dispatch.Round{
				GroupKey:   "g-1",
				OrderIDs:   []string{"o-1", "o-2"},
				Outcome:    dispatch.OutcomeOpened,
				Recipients: []domain.CourierID{"c-a", "c-b"},
			}, nil
		},
	}
	req := withID(httptest.NewRequest(http.MethodPost, "/orders/g-1/dispatch", nil), "g-1")
	rr := httptest.NewRecorder()

	NewDispatchHandler(logx.Nop(), uc).Dispatch(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"group_id": "g-1",
		"order_ids": ["o-1", "o-2"],
		"outcome": "opened",
		"recipients": ["c-a", "c-b"]
	}`, rr.Body.String())
}

func TestDispatchHandler_Complete_ReportsReleasedCourier(t *testing.T) {
	t.Parallel()

	released := domain.CourierID("c-a")
	uc := &stubDispatchUsecase{
		doneFn: func(context.Context, string) (offer.Release, error) {
			return offer.Release{Orders: []domain.Order{{ID: "o-1"}}, Courier: &released}, nil
		},
	}
	req := withID(httptest.NewRequest(http.MethodPost, "/orders/o-1/complete", nil), "o-1")
	rr := httptest.NewRecorder()

	NewDispatchHandler(logx.Nop(), uc).Complete(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"completed","order_ids":["o-1"],"released_courier":"c-a"}`, rr.Body.String())
}

func TestDispatchHandler_Cancel_Conflict(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		cancelFn: func(context.Context, string) (offer.Release, error) {
			return offer.Release{}, apperr.ErrConflict
		},
	}
	req := withID(httptest.NewRequest(http.MethodPost, "/orders/o-1/cancel", nil), "o-1")
	rr := httptest.NewRecorder()

	NewDispatchHandler(logx.Nop(), uc).Cancel(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDispatchHandler_Presence(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		onlineFn: func(_ context.Context, ref string) (dispatch.SweepStats, error) {
			require.Equal(t, "c-a", ref)
			return dispatch.SweepStats{Groups: 2, Opened: 1, Unfulfillable: 1}, nil
		},
		offlineFn: func(_ context.Context, ref string) error {
			require.Equal(t, "c-a", ref)
			return nil
		},
	}
	h := NewDispatchHandler(logx.Nop(), uc)

	rr := httptest.NewRecorder()
	h.Online(rr, withID(httptest.NewRequest(http.MethodPost, "/couriers/c-a/online", nil), "c-a"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"online","expired":0,"groups":2,"opened":1,"pinned":0,
		"unfulfillable":1,"skipped":0,"failed":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Offline(rr, withID(httptest.NewRequest(http.MethodPost, "/couriers/c-a/offline", nil), "c-a"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"offline"}`, rr.Body.String())
}

func TestDispatchHandler_Offers_Empty(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		offersFn: func(context.Context, string) ([]domain.Order, error) { return nil, nil },
	}
	rr := httptest.NewRecorder()
	NewDispatchHandler(logx.Nop(), uc).Offers(rr, withID(httptest.NewRequest(http.MethodGet, "/couriers/c-a/offers", nil), "c-a"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestDispatchHandler_BlankID(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewDispatchHandler(logx.Nop(), &stubDispatchUsecase{}).Dispatch(rr, withID(httptest.NewRequest(http.MethodPost, "/orders/%20/dispatch", nil), " "))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
