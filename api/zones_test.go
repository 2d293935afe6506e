package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/service/zones"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestZoneHandler_createZone(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := []byte(`{"name":"Bunker","category_id":"c1","min_occupants":4,"max_occupants":10,"list_price":"120"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/zones", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	zone := &domain.Zone{
		ID: "z1", Name: "Bunker", CategoryID: "c1", MinOccupants: 4, MaxOccupants: 10, Available: true,
		Catalog: domain.CatalogItem{ListPrice: decimal.NewFromInt(120)},
	}
	mockService.On("CreateZone", c.Request.Context(), mock.MatchedBy(func(in zones.CreateZoneInput) bool {
		return in.Name == "Bunker" && in.MaxOccupants == 10 && in.ListPrice.Equal(decimal.NewFromInt(120))
	})).Return(zone, nil)

	handler.createZone(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp zoneResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "120.00", resp.ListPrice)
	assert.True(t, resp.Available)
	mockService.AssertExpectations(t)
}

func TestZoneHandler_deleteZone_InUse(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/zones/z1", nil)
	c.Params = gin.Params{{Key: "id", Value: "z1"}}

	mockService.On("DeleteZone", c.Request.Context(), "z1").
		Return(&domain.LifecycleError{Op: "delete zone", Msg: "zone has active bookings"})

	handler.deleteZone(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestZoneHandler_candidates(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/categories/c1/free-zones?check_in=2030-01-10T10:00:00Z&check_out=2030-01-11T10:00:00Z", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	iv := interval.Interval{
		Start: time.Date(2030, 1, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2030, 1, 11, 10, 0, 0, 0, time.UTC),
	}
	mockService.On("CandidateZones", c.Request.Context(), "c1", mock.MatchedBy(func(got interval.Interval) bool {
		return got.Start.Equal(iv.Start) && got.End.Equal(iv.End)
	})).Return([]domain.Zone{{ID: "z2", Name: "Forest"}}, nil)

	handler.candidates(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"z2"`)
	mockService.AssertExpectations(t)
}

func TestZoneHandler_candidates_BadQuery(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/categories/c1/free-zones?check_in=tomorrow", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.candidates(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "check_in")
}

func TestZoneHandler_updateCategory(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/categories/c2",
		bytes.NewReader([]byte(`{"name":"Woods","parent_id":"c1"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c2"}}

	mockService.On("RenameCategory", c.Request.Context(), "c2", "Woods").
		Return(domain.Category{ID: "c2", Name: "Woods", Path: "Woods"}, nil)
	mockService.On("MoveCategory", c.Request.Context(), "c2", "c1").
		Return(domain.Category{ID: "c2", Name: "Woods", ParentID: "c1", Path: "Outdoor / Woods"}, nil)

	handler.updateCategory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"path":"Outdoor / Woods"`)
	mockService.AssertExpectations(t)
}

func TestZoneHandler_updateCategory_Empty(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/categories/c2", bytes.NewReader([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c2"}}

	handler.updateCategory(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestZoneHandler_setAmenityState(t *testing.T) {
	mockService := &MockZoneUseCase{}
	handler := NewZoneHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/amenities/a1/state",
		bytes.NewReader([]byte(`{"state":"occupied"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	mockService.On("SetAmenityState", c.Request.Context(), "a1", domain.AmenityOccupied).Return(nil)

	handler.setAmenityState(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
