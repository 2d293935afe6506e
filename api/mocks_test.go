package api

import (
	"context"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/service/folio"
	"github.com/Domenick1991/paintballpark/internal/service/report"
	"github.com/Domenick1991/paintballpark/internal/service/reservation"
	"github.com/Domenick1991/paintballpark/internal/service/zones"
	"github.com/stretchr/testify/mock"
)

type MockReservationUseCase struct {
	mock.Mock
}

var _ reservation.ReservationUseCase = (*MockReservationUseCase)(nil)

func (m *MockReservationUseCase) reservation(args mock.Arguments) (*domain.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) Create(ctx context.Context, input reservation.CreateInput) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, input))
}

func (m *MockReservationUseCase) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationUseCase) UpdateDraft(ctx context.Context, id string, input reservation.UpdateInput) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id, input))
}

func (m *MockReservationUseCase) Confirm(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationUseCase) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationUseCase) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReservationUseCase) MarkDone(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReservationUseCase) QuickReserve(ctx context.Context, input reservation.QuickReserveInput) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, input))
}

func (m *MockReservationUseCase) DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]domain.Reservation, error) {
	args := m.Called(ctx, now, window)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	args := m.Called(ctx, now, window)
	return args.Int(0), args.Error(1)
}

type MockFolioUseCase struct {
	mock.Mock
}

var _ folio.FolioUseCase = (*MockFolioUseCase)(nil)

func (m *MockFolioUseCase) folio(args mock.Arguments) (*domain.Folio, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Folio), args.Error(1)
}

func (m *MockFolioUseCase) Materialize(ctx context.Context, reservationID string) (*domain.Folio, error) {
	return m.folio(m.Called(ctx, reservationID))
}

func (m *MockFolioUseCase) CreateDirect(ctx context.Context, input folio.DirectInput) (*domain.Folio, error) {
	return m.folio(m.Called(ctx, input))
}

func (m *MockFolioUseCase) Get(ctx context.Context, id string) (*domain.Folio, error) {
	return m.folio(m.Called(ctx, id))
}

func (m *MockFolioUseCase) RemoveLine(ctx context.Context, folioID, lineID string) error {
	return m.Called(ctx, folioID, lineID).Error(0)
}

func (m *MockFolioUseCase) AddServiceLine(ctx context.Context, folioID, serviceID string, quantity int) (*domain.Folio, error) {
	return m.folio(m.Called(ctx, folioID, serviceID, quantity))
}

func (m *MockFolioUseCase) Invoice(ctx context.Context, folioID string) (*domain.Folio, error) {
	return m.folio(m.Called(ctx, folioID))
}

type MockZoneUseCase struct {
	mock.Mock
}

var _ zones.ZoneUseCase = (*MockZoneUseCase)(nil)

func (m *MockZoneUseCase) CreateCategory(ctx context.Context, input zones.CreateCategoryInput) (domain.Category, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockZoneUseCase) RenameCategory(ctx context.Context, id, name string) (domain.Category, error) {
	args := m.Called(ctx, id, name)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockZoneUseCase) MoveCategory(ctx context.Context, id, parentID string) (domain.Category, error) {
	args := m.Called(ctx, id, parentID)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockZoneUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockZoneUseCase) FindCategoryByPath(ctx context.Context, path string) (domain.Category, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockZoneUseCase) CreateZone(ctx context.Context, input zones.CreateZoneInput) (*domain.Zone, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockZoneUseCase) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockZoneUseCase) ListZones(ctx context.Context) ([]domain.Zone, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Zone), args.Error(1)
}

func (m *MockZoneUseCase) DeleteZone(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockZoneUseCase) CandidateZones(ctx context.Context, categoryID string, iv interval.Interval) ([]domain.Zone, error) {
	args := m.Called(ctx, categoryID, iv)
	return args.Get(0).([]domain.Zone), args.Error(1)
}

func (m *MockZoneUseCase) CreateService(ctx context.Context, input zones.CreateServiceInput) (*domain.ServiceOffering, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceOffering), args.Error(1)
}

func (m *MockZoneUseCase) ListServices(ctx context.Context) ([]domain.ServiceOffering, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ServiceOffering), args.Error(1)
}

func (m *MockZoneUseCase) CreateAmenityType(ctx context.Context, name string) (*domain.AmenityType, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AmenityType), args.Error(1)
}

func (m *MockZoneUseCase) ListAmenityTypes(ctx context.Context) ([]domain.AmenityType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AmenityType), args.Error(1)
}

func (m *MockZoneUseCase) CreateAmenity(ctx context.Context, input zones.CreateAmenityInput) (*domain.Amenity, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Amenity), args.Error(1)
}

func (m *MockZoneUseCase) ListAmenities(ctx context.Context) ([]domain.Amenity, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Amenity), args.Error(1)
}

func (m *MockZoneUseCase) SetAmenityState(ctx context.Context, id string, state domain.AmenityState) error {
	return m.Called(ctx, id, state).Error(0)
}

type MockReportUseCase struct {
	mock.Mock
}

var _ report.ReportUseCase = (*MockReportUseCase)(nil)

func (m *MockReportUseCase) ZoneSummary(ctx context.Context, from, to time.Time) ([]report.ZoneSummary, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]report.ZoneSummary), args.Error(1)
}

func (m *MockReportUseCase) Usage(ctx context.Context, from, to time.Time) ([]report.ZoneUsage, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]report.ZoneUsage), args.Error(1)
}

func (m *MockReportUseCase) CheckIns(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReportUseCase) CheckOuts(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReportUseCase) Stays(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
