package handle_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MentorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-MentorBooking/pkg/logger"
)

type fakeService struct {
	got *models.HandleBookingRequest
	err error
}

func (f *fakeService) HandleBooking(_ context.Context, req *models.HandleBookingRequest) (*models.BookingResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: req.BookingID, Status: "CONFIRMED"}, nil
}

func serve(svc *fakeService, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/bookings/{bookingId}/handle", middleware.Auth(http.HandlerFunc(NewHandler(svc, logger.NewNop()).Handle)))
	req := httptest.NewRequest(http.MethodPatch, "/bookings/7/handle", strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, "20")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_PassesMentorAndAction(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, `{"action":"APPROVE","linkMeeting":"https://meet.example/abc"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	assert.Equal(t, int64(7), svc.got.BookingID)
	assert.Equal(t, int64(20), svc.got.MentorID)
	assert.Equal(t, "APPROVE", svc.got.Action)
	require.NotNil(t, svc.got.LinkMeeting)
	assert.Equal(t, "https://meet.example/abc", *svc.got.LinkMeeting)
}

func TestHandle_RejectWithoutReason(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, `{"action":"REJECT"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.got.Reason)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{bookings.ErrBookingNotFound, http.StatusNotFound},
		{bookings.ErrAccessDenied, http.StatusForbidden},
		{bookings.ErrNotPending, http.StatusUnprocessableEntity},
		{bookings.ErrInvalidInput, http.StatusBadRequest},
		{bookings.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := serve(&fakeService{err: tt.err}, `{"action":"APPROVE"}`)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}

	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, `{"action":"APPROVE","extra":1}`).Code)
}
