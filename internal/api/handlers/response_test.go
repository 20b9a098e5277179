package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

func TestStatusFromError(t *testing.T) {
	sentinel := domain.NewError(domain.ErrConflict, "slot already booked")

	tests := []struct {
		err  error
		want int
	}{
		{domain.NewError(domain.ErrValidation, "bad"), http.StatusBadRequest},
		{domain.NewError(domain.ErrNotFound, "missing"), http.StatusNotFound},
		{domain.NewError(domain.ErrAuthorization, "denied"), http.StatusForbidden},
		{fmt.Errorf("%w: schedule 7", sentinel), http.StatusConflict},
		{domain.NewError(domain.ErrInvalidState, "not pending"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromError(tt.err), tt.err.Error())
	}
}

func TestRespondDomainError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondDomainError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")

	rec = httptest.NewRecorder()
	RespondDomainError(rec, domain.NewError(domain.ErrConflict, "schedule is already booked"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, body.Code)
	assert.Equal(t, "schedule is already booked", body.Message)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		ScheduleID int64 `json:"scheduleId"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"scheduleId": 5}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, int64(5), dst.ScheduleID)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"scheduleId": 5, "price": 1}`))
	assert.Error(t, DecodeJSON(r, &dst))
}

func TestDecodeOptionalJSON(t *testing.T) {
	var dst struct {
		Reason string `json:"reason"`
	}

	// chunked без данных: ContentLength == -1, тело пустое
	r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(""))
	r.ContentLength = -1
	require.NoError(t, DecodeOptionalJSON(r, &dst))
	assert.Empty(t, dst.Reason)

	r = httptest.NewRequest(http.MethodPatch, "/", nil)
	require.NoError(t, DecodeOptionalJSON(r, &dst))

	r = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"reason":"sick"}`))
	require.NoError(t, DecodeOptionalJSON(r, &dst))
	assert.Equal(t, "sick", dst.Reason)

	r = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"reason":`))
	assert.Error(t, DecodeOptionalJSON(r, &dst))
}

func TestPathInt64(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"bookingId": "42"})
	id, err := PathInt64(r, "bookingId")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"bookingId": raw})
		_, err := PathInt64(r, "bookingId")
		assert.Error(t, err, raw)
	}
}
