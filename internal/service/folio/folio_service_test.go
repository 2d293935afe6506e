package folio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/kafka"
	"github.com/Domenick1991/paintballpark/internal/ledger"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/Domenick1991/paintballpark/internal/repository/memory"
	"github.com/Domenick1991/paintballpark/internal/sequence"
	"github.com/Domenick1991/paintballpark/internal/service/reservation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvoicer struct {
	mock.Mock
}

func (m *MockInvoicer) Invoice(ctx context.Context, f domain.Folio) (string, error) {
	args := m.Called(ctx, f.ID)
	return args.String(0), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var now = time.Date(2030, time.January, 5, 9, 0, 0, 0, time.UTC)

func jan(day, hour, minute int) time.Time {
	return time.Date(2030, time.January, day, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	svc          *FolioService
	reservations *reservation.ReservationService
	store        *repository.Store
	ledger       *ledger.Ledger
}

// newFixture seeds zones "a" (120/day) and "b" (80/day) and service "paint".
func newFixture(t *testing.T, opts ...FolioServiceOption) fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Categories.Create(ctx, domain.Category{ID: "field", Name: "Field", Path: "Field"}))
	require.NoError(t, store.Zones.Create(ctx, &domain.Zone{
		ID: "a", Name: "Bunker", CategoryID: "field", MinOccupants: 2, MaxOccupants: 10, Available: true,
		Catalog: domain.CatalogItem{ProductRef: "ZONE-A", ListPrice: decimal.NewFromInt(120)},
	}))
	require.NoError(t, store.Zones.Create(ctx, &domain.Zone{
		ID: "b", Name: "Forest", CategoryID: "field", MinOccupants: 2, MaxOccupants: 10, Available: true,
		Catalog: domain.CatalogItem{ProductRef: "ZONE-B", ListPrice: decimal.NewFromInt(80)},
	}))
	require.NoError(t, store.Catalog.CreateService(ctx, &domain.ServiceOffering{
		ID: "paint", Name: "Paint", Catalog: domain.CatalogItem{ListPrice: decimal.RequireFromString("35.50")},
	}))

	logger, _ := test.NewNullLogger()
	clk := clock.NewFixed(now)
	l := ledger.New(store, clk, clock.UTC, logger)
	seq := sequence.NewMemoryGenerator()
	reservations := reservation.NewReservationService(store, l, seq, clk, logger)
	return fixture{
		svc:          NewFolioService(store, l, seq, reservations, clk, clock.UTC, logger, opts...),
		reservations: reservations,
		store:        store,
		ledger:       l,
	}
}

func (f fixture) confirmed(t *testing.T, checkIn, checkOut time.Time, zoneIDs ...string) *domain.Reservation {
	t.Helper()
	ctx := context.Background()
	res, err := f.reservations.Create(ctx, reservation.CreateInput{
		GuestID: "guest-1", CheckIn: checkIn, CheckOut: checkOut, Adults: 2,
		Lines: []reservation.LineInput{{Name: "Fields", CategoryID: "field", ZoneIDs: zoneIDs}},
	})
	require.NoError(t, err)
	res, err = f.reservations.Confirm(ctx, res.ID)
	require.NoError(t, err)
	return res
}

func TestFolioService_Materialize(t *testing.T) {
	producer := &MockProducer{}
	f := newFixture(t, WithEvents(producer, "events"))
	ctx := context.Background()
	res := f.confirmed(t, jan(10, 12, 0), jan(11, 12, 0), "a", "b")

	producer.On("Publish", mock.Anything, "events", mock.Anything, mock.MatchedBy(func(e kafka.ParkEvent) bool {
		return e.Type == kafka.EventFolioCreated && e.ReservationID == res.ID
	})).Return(nil).Once()
	producer.On("Publish", mock.Anything, "events", res.ID, mock.MatchedBy(func(e kafka.ParkEvent) bool {
		return e.Type == kafka.EventReservationDone && e.State == string(domain.ReservationDone) && len(e.ZoneIDs) == 2
	})).Return(nil).Once()

	folio, err := f.svc.Materialize(ctx, res.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, folio.Duration)
	assert.Equal(t, "FOL/0001", folio.Number)
	require.Len(t, folio.Lines, 2)
	for _, l := range folio.Lines {
		assert.True(t, l.IsReserved)
		assert.Equal(t, 2, l.Quantity)
		assert.NotEmpty(t, l.BookingID)
	}
	assert.True(t, decimal.NewFromInt(400).Equal(folio.Total()))

	stored, err := f.store.Reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationDone, stored.State)
	assert.Equal(t, []string{folio.ID}, stored.FolioIDs)

	_, err = f.svc.Materialize(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyMaterialized)
	producer.AssertExpectations(t)
}

func TestFolioService_Materialize_RequiresConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.reservations.Create(ctx, reservation.CreateInput{
		GuestID: "g", CheckIn: jan(10, 12, 0), CheckOut: jan(11, 12, 0), Adults: 1,
		Lines: []reservation.LineInput{{ZoneIDs: []string{"a"}}},
	})
	require.NoError(t, err)

	_, err = f.svc.Materialize(ctx, res.ID)

	assert.True(t, domain.IsLifecycle(err))
	assert.False(t, errors.Is(err, domain.ErrAlreadyMaterialized))
}

func TestFolioService_Materialize_GraceRule(t *testing.T) {
	tests := []struct {
		name     string
		rule     interval.GraceRule
		checkOut time.Time
		want     int
	}{
		{"checkout inside grace", interval.GraceRule{Minutes: 60}, jan(11, 0, 30), 1},
		{"checkout past grace", interval.GraceRule{Minutes: 60}, jan(11, 1, 30), 2},
		{"no grace", interval.GraceRule{}, jan(11, 0, 30), 2},
		{"same day", interval.GraceRule{Minutes: 60}, jan(10, 20, 0), 1},
		{"strict at threshold", interval.GraceRule{Minutes: 60, Strict: true}, jan(11, 1, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, WithGrace(tt.rule))
			res := f.confirmed(t, jan(10, 10, 0), tt.checkOut, "a")

			folio, err := f.svc.Materialize(context.Background(), res.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.want, folio.Duration)
		})
	}
}

func TestFolioService_Materialize_RemarksZoneOccupied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.confirmed(t, jan(10, 12, 0), jan(11, 12, 0), "a")

	result, err := f.ledger.Reconcile(ctx, "a", now)
	require.NoError(t, err)
	require.True(t, result.Available)

	_, err = f.svc.Materialize(ctx, res.ID)
	require.NoError(t, err)

	zone, err := f.store.Zones.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, zone.Available)
}

func TestFolioService_CreateDirect_ConflictIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.confirmed(t, jan(10, 12, 0), jan(11, 12, 0), "b")

	_, err := f.svc.CreateDirect(ctx, DirectInput{
		GuestID:  "walk-in",
		CheckIn:  jan(11, 12, 0),
		CheckOut: jan(11, 18, 0),
		Lines:    []DirectLineInput{{ZoneID: "a"}, {ZoneID: "b"}},
	})

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "b", conflict.ZoneID)

	conflicts, err := f.ledger.FindConflicts(ctx, "a", interval.Interval{Start: jan(11, 12, 0), End: jan(11, 18, 0)})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFolioService_CreateDirect_AndRemoveLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	iv := interval.Interval{Start: jan(12, 9, 0), End: jan(12, 17, 0)}

	folio, err := f.svc.CreateDirect(ctx, DirectInput{
		GuestID:      "walk-in",
		CheckIn:      iv.Start,
		CheckOut:     iv.End,
		Lines:        []DirectLineInput{{ZoneID: "a"}},
		ServiceLines: []ServiceLineInput{{ServiceID: "paint", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, folio.Duration)
	assert.Empty(t, folio.ReservationID)
	require.Len(t, folio.Lines, 1)
	assert.False(t, folio.Lines[0].IsReserved)
	assert.True(t, decimal.NewFromInt(191).Equal(folio.Total()))

	conflicts, err := f.ledger.FindConflicts(ctx, "a", iv)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.SourceDirectFolio, conflicts[0].Source)
	assert.Equal(t, folio.Lines[0].Owner(), conflicts[0].Owner)

	require.NoError(t, f.svc.RemoveLine(ctx, folio.ID, folio.Lines[0].ID))

	conflicts, err = f.ledger.FindConflicts(ctx, "a", iv)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	stored, err := f.svc.Get(ctx, folio.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Lines)

	assert.ErrorIs(t, f.svc.RemoveLine(ctx, folio.ID, "missing"), domain.ErrNotFound)
}

func TestFolioService_CreateDirect_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDirect(ctx, DirectInput{GuestID: "g", CheckIn: jan(12, 9, 0), CheckOut: jan(12, 8, 0), Lines: []DirectLineInput{{ZoneID: "a"}}})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.CreateDirect(ctx, DirectInput{GuestID: "g", CheckIn: jan(12, 9, 0), CheckOut: jan(12, 10, 0)})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.CreateDirect(ctx, DirectInput{GuestID: "g", CheckIn: jan(12, 9, 0), CheckOut: jan(12, 10, 0), Lines: []DirectLineInput{{ZoneID: "zz"}}})
	assert.True(t, domain.IsValidation(err))
}

func TestFolioService_AddServiceLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.confirmed(t, jan(10, 12, 0), jan(10, 18, 0), "b")
	folio, err := f.svc.Materialize(ctx, res.ID)
	require.NoError(t, err)

	_, err = f.svc.AddServiceLine(ctx, folio.ID, "paint", 0)
	assert.True(t, domain.IsValidation(err))

	updated, err := f.svc.AddServiceLine(ctx, folio.ID, "paint", 4)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(222).Equal(updated.Total()))

	stored, err := f.svc.Get(ctx, folio.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ServiceLines, 1)
}

func TestFolioService_Invoice(t *testing.T) {
	invoicer := &MockInvoicer{}
	f := newFixture(t, WithInvoicer(invoicer))
	ctx := context.Background()
	res := f.confirmed(t, jan(10, 12, 0), jan(11, 12, 0), "a")
	folio, err := f.svc.Materialize(ctx, res.ID)
	require.NoError(t, err)

	invoicer.On("Invoice", mock.Anything, folio.ID).Return("INV-1", nil).Once()

	invoiced, err := f.svc.Invoice(ctx, folio.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", invoiced.Order.InvoiceRef)
	assert.Equal(t, now, invoiced.Order.InvoicedAt)

	_, err = f.svc.Invoice(ctx, folio.ID)
	assert.True(t, domain.IsLifecycle(err))

	_, err = f.svc.AddServiceLine(ctx, folio.ID, "paint", 1)
	assert.True(t, domain.IsLifecycle(err))
	invoicer.AssertExpectations(t)
}

func TestFolioService_Invoice_FailureLeavesFolioOpen(t *testing.T) {
	invoicer := &MockInvoicer{}
	f := newFixture(t, WithInvoicer(invoicer))
	ctx := context.Background()
	res := f.confirmed(t, jan(10, 12, 0), jan(11, 12, 0), "a")
	folio, err := f.svc.Materialize(ctx, res.ID)
	require.NoError(t, err)

	invoicer.On("Invoice", mock.Anything, folio.ID).Return("", errors.New("broker down"))

	_, err = f.svc.Invoice(ctx, folio.ID)
	assert.Error(t, err)

	stored, err := f.svc.Get(ctx, folio.ID)
	require.NoError(t, err)
	assert.False(t, stored.Order.Invoiced())
}
