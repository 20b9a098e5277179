package get_user_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
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
	got *models.GetUserBookingsRequest
	err error
}

func (f *fakeService) GetUserBookings(_ context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingListResponse{Bookings: []models.BookingResponse{}}, nil
}

func serve(svc *fakeService, target, userID string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/users/{userId}/bookings", middleware.Auth(http.HandlerFunc(NewHandler(svc, logger.NewNop()).Handle)))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.UserIDHeader, userID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_CustomerAndMentorViews(t *testing.T) {
	svc := &fakeService{}
	require.Equal(t, http.StatusOK, serve(svc, "/users/10/bookings", "10").Code)
	assert.False(t, svc.got.AsMentor)
	assert.Nil(t, svc.got.Status)

	require.Equal(t, http.StatusOK, serve(svc, "/users/10/bookings?as=mentor&status=confirmed", "10").Code)
	assert.True(t, svc.got.AsMentor)
	require.NotNil(t, svc.got.Status)
	assert.Equal(t, "confirmed", *svc.got.Status)
}

func TestHandle_OnlyOwnBookings(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, "/users/10/bookings", "11")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, svc.got)
}

func TestHandle_BadParams(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "/users/10/bookings?as=admin", "10").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{err: bookings.ErrInvalidInput}, "/users/10/bookings?status=nope", "10").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: bookings.ErrInternal}, "/users/10/bookings", "10").Code)
}
