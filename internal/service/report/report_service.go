package report

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

// maxSummaryDays bounds the day grid of a zone summary.
const maxSummaryDays = 366

type DayStatus string

const (
	DayFree     DayStatus = "Free"
	DayReserved DayStatus = "Reserved"
)

type ZoneDay struct {
	Date   time.Time `json:"date"`
	Status DayStatus `json:"status"`
}

type ZoneSummary struct {
	ZoneID   string    `json:"zone_id"`
	ZoneName string    `json:"zone_name"`
	Days     []ZoneDay `json:"days"`
}

type ZoneUsage struct {
	ZoneID   string `json:"zone_id"`
	ZoneName string `json:"zone_name"`
	Bookings int    `json:"bookings"`
}

type ReportUseCase interface {
	ZoneSummary(ctx context.Context, from, to time.Time) ([]ZoneSummary, error)
	Usage(ctx context.Context, from, to time.Time) ([]ZoneUsage, error)
	CheckIns(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	CheckOuts(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	Stays(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
}

type ReportService struct {
	store  *repository.Store
	locale clock.Locale
}

func NewReportService(store *repository.Store, locale clock.Locale) *ReportService {
	return &ReportService{store: store, locale: locale}
}

func checkRange(from, to time.Time) error {
	if !from.Before(to) {
		return domain.NewValidationError("report start must be before its end")
	}
	return nil
}

// ZoneSummary marks each calendar day of [from, to] per zone as Reserved
// when an assigned booking touches that day.
func (s *ReportService) ZoneSummary(ctx context.Context, from, to time.Time) ([]ZoneSummary, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	window := interval.Interval{Start: from, End: to}
	days := interval.Days(window, s.locale)
	if len(days) > maxSummaryDays {
		return nil, domain.NewValidationError("report range must not exceed %d days", maxSummaryDays)
	}

	zones, err := s.store.Zones.List(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.Bookings.ListAssignedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	reserved := make(map[string]map[time.Time]struct{})
	for _, b := range bookings {
		set, ok := reserved[b.ZoneID]
		if !ok {
			set = make(map[time.Time]struct{})
			reserved[b.ZoneID] = set
		}
		for _, d := range interval.Days(b.Interval(), s.locale) {
			set[d] = struct{}{}
		}
	}

	out := make([]ZoneSummary, 0, len(zones))
	for _, z := range zones {
		summary := ZoneSummary{ZoneID: z.ID, ZoneName: z.Name, Days: make([]ZoneDay, 0, len(days))}
		for _, d := range days {
			status := DayFree
			if _, ok := reserved[z.ID][d]; ok {
				status = DayReserved
			}
			summary.Days = append(summary.Days, ZoneDay{Date: d, Status: status})
		}
		out = append(out, summary)
	}
	return out, nil
}

// Usage counts assigned bookings per zone whose check-in lies in [from, to].
func (s *ReportService) Usage(ctx context.Context, from, to time.Time) ([]ZoneUsage, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	zones, err := s.store.Zones.List(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.Bookings.ListAssignedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, b := range bookings {
		if b.CheckIn.Before(from) || b.CheckIn.After(to) {
			continue
		}
		counts[b.ZoneID]++
	}

	out := make([]ZoneUsage, 0, len(zones))
	for _, z := range zones {
		out = append(out, ZoneUsage{ZoneID: z.ID, ZoneName: z.Name, Bookings: counts[z.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Bookings > out[j].Bookings })
	return out, nil
}

func (s *ReportService) CheckIns(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	list, err := s.store.Reservations.ListCheckInBetween(ctx, from, to)
	return active(list), err
}

func (s *ReportService) CheckOuts(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	list, err := s.store.Reservations.ListCheckOutBetween(ctx, from, to)
	return active(list), err
}

// Stays lists reservations whose whole stay lies inside [from, to].
func (s *ReportService) Stays(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	list, err := s.store.Reservations.ListWithin(ctx, from, to)
	return active(list), err
}

// active drops cancelled reservations.
func active(list []domain.Reservation) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(list))
	for _, r := range list {
		if r.State != domain.ReservationCancel {
			out = append(out, r)
		}
	}
	return out
}

var _ ReportUseCase = (*ReportService)(nil)
