package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/service/reservation"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testReservation(state domain.ReservationState) *domain.Reservation {
	return &domain.Reservation{
		ID:       "r1",
		Number:   "RES/0001",
		GuestID:  "g1",
		CheckIn:  time.Date(2030, 1, 10, 10, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2030, 1, 12, 10, 0, 0, 0, time.UTC),
		Adults:   4,
		State:    state,
		Lines:    []domain.ReservationLine{{ID: "l1", Name: "Forest", ZoneIDs: []string{"z1"}}},
	}
}

func TestReservationHandler_create(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, &MockFolioUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := reservation.CreateInput{
		GuestID:  "g1",
		CheckIn:  time.Date(2030, 1, 10, 10, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2030, 1, 12, 10, 0, 0, 0, time.UTC),
		Adults:   4,
		Lines:    []reservation.LineInput{{Name: "Forest", ZoneIDs: []string{"z1"}}},
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Create", c.Request.Context(), mock.MatchedBy(func(in reservation.CreateInput) bool {
		return in.GuestID == "g1" && in.Adults == 4 && in.CheckIn.Equal(input.CheckIn) && len(in.Lines) == 1
	})).Return(testReservation(domain.ReservationDraft), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RES/0001", resp.Number)
	assert.Equal(t, "draft", resp.State)
	assert.Equal(t, "2030-01-10T10:00:00Z", resp.CheckIn)
	assert.Equal(t, []string{"z1"}, resp.Lines[0].ZoneIDs)
	assert.Empty(t, resp.FolioIDs)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_create_InvalidJSON(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, &MockFolioUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReservationHandler_confirm(t *testing.T) {
	tests := []struct {
		name       string
		result     *domain.Reservation
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "confirmed",
			result:     testReservation(domain.ReservationConfirm),
			wantStatus: http.StatusOK,
			wantBody:   `"state":"confirm"`,
		},
		{
			name: "zone taken",
			err: &domain.ConflictError{
				ZoneID: "z1",
				Dates:  []time.Time{time.Date(2030, 1, 11, 0, 0, 0, 0, time.UTC)},
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"dates":["11/01/2030"]`,
		},
		{
			name:       "wrong state",
			err:        &domain.LifecycleError{Op: "confirm", State: "cancel"},
			wantStatus: http.StatusConflict,
			wantBody:   "confirm not allowed in state cancel",
		},
		{
			name:       "unknown",
			err:        domain.ErrReservationNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "over capacity",
			err:        domain.NewValidationError("too many guests"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "too many guests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockReservationUseCase{}
			handler := NewReservationHandler(mockService, &MockFolioUseCase{})

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/reservations/r1/confirm", nil)
			c.Params = gin.Params{{Key: "id", Value: "r1"}}

			if tt.result != nil {
				mockService.On("Confirm", c.Request.Context(), "r1").Return(tt.result, nil)
			} else {
				mockService.On("Confirm", c.Request.Context(), "r1").Return(nil, tt.err)
			}

			handler.confirm(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestReservationHandler_cancel(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, &MockFolioUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/reservations/r1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	mockService.On("Cancel", c.Request.Context(), "r1").Return(testReservation(domain.ReservationCancel), nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"cancel"`)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_delete(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, &MockFolioUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/reservations/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	mockService.On("Delete", c.Request.Context(), "r1").
		Return(&domain.LifecycleError{Op: "delete", State: "confirm"})

	handler.delete(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_materialize(t *testing.T) {
	mockFolios := &MockFolioUseCase{}
	handler := NewReservationHandler(&MockReservationUseCase{}, mockFolios)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/reservations/r1/folio", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	f := &domain.Folio{
		ID:            "f1",
		Number:        "FOL/0001",
		ReservationID: "r1",
		Duration:      2,
		Lines: []domain.FolioLine{
			{ID: "fl1", ZoneID: "z1", Quantity: 2, UnitPrice: decimal.NewFromInt(120), IsReserved: true},
		},
	}
	mockFolios.On("Materialize", c.Request.Context(), "r1").Return(f, nil)

	handler.materialize(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp folioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "240.00", resp.Total)
	assert.Equal(t, "240.00", resp.Lines[0].Amount)
	assert.True(t, resp.Lines[0].IsReserved)
	mockFolios.AssertExpectations(t)
}

func TestReservationHandler_materialize_Twice(t *testing.T) {
	mockFolios := &MockFolioUseCase{}
	handler := NewReservationHandler(&MockReservationUseCase{}, mockFolios)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/reservations/r1/folio", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	mockFolios.On("Materialize", c.Request.Context(), "r1").Return(nil, domain.ErrAlreadyMaterialized)

	handler.materialize(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already has a folio")
}
