package create_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MentorBooking/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-MentorBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-MentorBooking/pkg/logger"
)

type fakeUseCase struct {
	got *createBooking.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &createBooking.Response{ID: 1, ScheduleID: req.ScheduleID, CustomerID: req.CustomerID, Status: "PENDING"}, nil
}

func serve(uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	h := middleware.Auth(http.HandlerFunc(NewHandler(uc, logger.NewNop()).Handle))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, "10")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandle_CustomerComesFromHeader(t *testing.T) {
	uc := &fakeUseCase{}
	rec := serve(uc, `{"scheduleId": 3, "description": "career advice"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, int64(10), uc.got.CustomerID)
	assert.Equal(t, int64(3), uc.got.ScheduleID)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{createBooking.ErrSlotAlreadyBooked, http.StatusConflict},
		{createBooking.ErrScheduleNotFound, http.StatusNotFound},
		{createBooking.ErrSelfBooking, http.StatusBadRequest},
		{createBooking.ErrScheduleInPast, http.StatusBadRequest},
		{createBooking.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := serve(&fakeUseCase{err: tt.err}, `{"scheduleId": 3}`)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}
