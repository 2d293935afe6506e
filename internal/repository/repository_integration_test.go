package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/Domenick1991/paintballpark/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d, h int) time.Time {
	return time.Date(2030, time.March, d, h, 0, 0, 0, time.UTC)
}

func setupStore(t *testing.T) (*repository.Store, context.Context) {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	return repository.NewPGStore(pool), ctx
}

func seedZone(t *testing.T, ctx context.Context, store *repository.Store) domain.Zone {
	t.Helper()
	require.NoError(t, store.Categories.Create(ctx, domain.Category{ID: "woodland", Name: "Woodland", Path: "Woodland"}))
	z := domain.Zone{
		ID: "z1", Name: "Bunker Hill", CategoryID: "woodland", MinOccupants: 4, MaxOccupants: 10, Available: true,
		Catalog: domain.CatalogItem{ProductRef: "zone-bunker", ListPrice: decimal.RequireFromString("120.50")},
	}
	require.NoError(t, store.Zones.Create(ctx, &z))
	return z
}

func TestPGBookings_OverlapQueryIsInclusive(t *testing.T) {
	store, ctx := setupStore(t)
	z := seedZone(t, ctx, store)

	b := domain.BookingInterval{
		ID: "b1", ZoneID: z.ID, CheckIn: day(10, 12), CheckOut: day(12, 12),
		Source: domain.SourceReservation, Status: domain.BookingAssigned,
		Owner: domain.Owner{Kind: domain.OwnerReservation, ID: "r1"},
	}
	require.NoError(t, store.Bookings.Insert(ctx, &b))

	touching, err := store.Bookings.ListAssignedOverlapping(ctx, z.ID, interval.Interval{Start: day(12, 12), End: day(13, 12)})
	require.NoError(t, err)
	require.Len(t, touching, 1)
	assert.Equal(t, "b1", touching[0].ID)

	after, err := store.Bookings.ListAssignedOverlapping(ctx, z.ID, interval.Interval{Start: day(12, 13), End: day(13, 12)})
	require.NoError(t, err)
	assert.Empty(t, after)

	require.NoError(t, store.Bookings.UpdateStatus(ctx, "b1", domain.BookingUnassigned))
	n, err := store.Bookings.CountAssignedByZone(ctx, z.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPGTransactor_RollsBack(t *testing.T) {
	store, ctx := setupStore(t)
	z := seedZone(t, ctx, store)

	boom := errors.New("boom")
	err := store.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := store.Zones.SetAvailable(ctx, z.ID, false); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Zones.GetByID(ctx, z.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.True(t, got.Catalog.ListPrice.Equal(decimal.RequireFromString("120.50")))
}

func TestPGReservations_LinesRoundTrip(t *testing.T) {
	store, ctx := setupStore(t)
	z := seedZone(t, ctx, store)

	res := domain.Reservation{
		ID: "r1", Number: "RES/0001", GuestID: "g1", GuestEmail: "guest@example.com",
		CheckIn: day(10, 12), CheckOut: day(11, 12), Adults: 4, State: domain.ReservationDraft, OrderedAt: day(1, 9),
		Lines: []domain.ReservationLine{{ID: "l1", Name: "Woodland", CategoryID: "woodland", ZoneIDs: []string{z.ID}}},
	}
	require.NoError(t, store.Reservations.Create(ctx, &res))

	got, err := store.Reservations.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, []string{z.ID}, got.Lines[0].ZoneIDs)
	assert.Empty(t, got.FolioIDs)

	_, err = store.Reservations.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPGSequences_ContinueAcrossStores(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	store := repository.NewPGStore(pool)

	for _, want := range []int64{1, 2} {
		n, err := store.Sequences.Next(ctx, "RES")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	restarted := repository.NewPGStore(pool)
	n, err := restarted.Sequences.Next(ctx, "RES")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = restarted.Sequences.Next(ctx, "FOL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
