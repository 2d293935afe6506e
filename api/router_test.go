package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/service/report"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testHandlers struct {
	zones        *MockZoneUseCase
	reservations *MockReservationUseCase
	folios       *MockFolioUseCase
	reports      *MockReportUseCase
}

func newTestRouter(t *testing.T, cfg config.HTTPConfig) (*gin.Engine, testHandlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := testHandlers{
		zones:        &MockZoneUseCase{},
		reservations: &MockReservationUseCase{},
		folios:       &MockFolioUseCase{},
		reports:      &MockReportUseCase{},
	}
	store, err := NewLimiterStore(nil)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	r, err := NewRouter(cfg, store, log, Handlers{
		Zones:        NewZoneHandler(m.zones),
		Reservations: NewReservationHandler(m.reservations, m.folios),
		Folios:       NewFolioHandler(m.folios),
		Reports:      NewReportHandler(m.reports),
	})
	require.NoError(t, err)
	return r, m
}

func TestNewRouter_Routes(t *testing.T) {
	r, m := newTestRouter(t, config.HTTPConfig{RateLimit: "100-M"})

	m.reservations.On("Get", mock.Anything, "r1").Return(testReservation(domain.ReservationConfirm), nil)
	m.folios.On("Get", mock.Anything, "f1").Return(nil, domain.ErrFolioNotFound)
	m.zones.On("ListZones", mock.Anything).Return([]domain.Zone{}, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/reservations/r1", http.StatusOK},
		{http.MethodGet, "/api/v1/folios/f1", http.StatusNotFound},
		{http.MethodGet, "/api/v1/zones", http.StatusOK},
		{http.MethodGet, "/api/v1/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestNewRouter_RateLimit(t *testing.T) {
	r, m := newTestRouter(t, config.HTTPConfig{RateLimit: "2-M"})
	m.zones.On("ListZones", mock.Anything).Return([]domain.Zone{}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	m.zones.AssertNumberOfCalls(t, "ListZones", 2)
}

func TestNewRouter_InvalidRate(t *testing.T) {
	store, err := NewLimiterStore(nil)
	require.NoError(t, err)

	_, err = NewRouter(config.HTTPConfig{RateLimit: "lots"}, store, logrus.New(), Handlers{})
	assert.Error(t, err)
}

func TestNewRouter_CORS(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{RateLimit: "100-M", CORSOrigins: []string{"https://desk.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/zones", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://desk.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestReportHandler_zoneSummary(t *testing.T) {
	r, m := newTestRouter(t, config.HTTPConfig{RateLimit: "100-M"})

	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2030, 1, 3, 0, 0, 0, 0, time.UTC)
	m.reports.On("ZoneSummary", mock.Anything, mock.MatchedBy(from.Equal), mock.MatchedBy(to.Equal)).
		Return([]report.ZoneSummary{{
			ZoneID:   "z1",
			ZoneName: "Bunker",
			Days: []report.ZoneDay{
				{Date: from, Status: report.DayFree},
				{Date: from.AddDate(0, 0, 1), Status: report.DayReserved},
			},
		}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/zone-summary?from=2030-01-01T00:00:00Z&to=2030-01-03T00:00:00Z", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `{"date":"02/01/2030","status":"Reserved"}`)
}

func TestReportHandler_InvalidRange(t *testing.T) {
	r, m := newTestRouter(t, config.HTTPConfig{RateLimit: "100-M"})
	m.reports.On("CheckIns", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Reservation(nil), domain.NewValidationError("from must be before to"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/check-ins?from=2030-01-03T00:00:00Z&to=2030-01-01T00:00:00Z", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
