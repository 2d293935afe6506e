package reservation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/kafka"
	"github.com/Domenick1991/paintballpark/internal/ledger"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/Domenick1991/paintballpark/internal/sequence"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	TemplateReminder24h = "reservation_reminder_24h"
	TemplateConfirmed   = "reservation_confirmed"
	TemplateCancelled   = "reservation_cancelled"
)

type ReservationUseCase interface {
	Create(ctx context.Context, input CreateInput) (*domain.Reservation, error)
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	UpdateDraft(ctx context.Context, id string, input UpdateInput) (*domain.Reservation, error)
	Confirm(ctx context.Context, id string) (*domain.Reservation, error)
	Cancel(ctx context.Context, id string) (*domain.Reservation, error)
	Delete(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id string) error
	QuickReserve(ctx context.Context, input QuickReserveInput) (*domain.Reservation, error)
	DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]domain.Reservation, error)
	SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Notifier interface {
	Notify(ctx context.Context, res domain.Reservation, template string) error
}

type LineInput struct {
	Name       string   `json:"name"`
	CategoryID string   `json:"category_id"`
	ZoneIDs    []string `json:"zone_ids"`
}

type CreateInput struct {
	GuestID    string      `json:"guest_id"`
	GuestEmail string      `json:"guest_email"`
	CheckIn    time.Time   `json:"check_in"`
	CheckOut   time.Time   `json:"check_out"`
	Adults     int         `json:"adults"`
	Children   int         `json:"children"`
	Lines      []LineInput `json:"lines"`
}

// UpdateInput changes only the fields that are set. A non-nil Lines
// replaces every line.
type UpdateInput struct {
	GuestEmail *string     `json:"guest_email"`
	CheckIn    *time.Time  `json:"check_in"`
	CheckOut   *time.Time  `json:"check_out"`
	Adults     *int        `json:"adults"`
	Children   *int        `json:"children"`
	Lines      []LineInput `json:"lines"`
}

type QuickReserveInput struct {
	GuestID    string    `json:"guest_id"`
	GuestEmail string    `json:"guest_email"`
	ZoneID     string    `json:"zone_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Adults     int       `json:"adults"`
}

type ReservationService struct {
	store    *repository.Store
	ledger   *ledger.Ledger
	seq      sequence.Generator
	clock    clock.Clock
	log      logrus.FieldLogger
	prefix   string
	producer Producer
	topic    string
	notifier Notifier
}

type ReservationServiceOption func(*ReservationService)

func WithEvents(producer Producer, topic string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithNotifier(n Notifier) ReservationServiceOption {
	return func(s *ReservationService) {
		s.notifier = n
	}
}

func WithNumberPrefix(prefix string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.prefix = prefix
	}
}

func NewReservationService(
	store *repository.Store,
	l *ledger.Ledger,
	seq sequence.Generator,
	clk clock.Clock,
	log logrus.FieldLogger,
	opts ...ReservationServiceOption,
) *ReservationService {
	s := &ReservationService{
		store:  store,
		ledger: l,
		seq:    seq,
		clock:  clk,
		log:    log.WithField("component", "reservation"),
		prefix: "RES",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReservationService) Create(ctx context.Context, input CreateInput) (*domain.Reservation, error) {
	res := &domain.Reservation{
		ID:         uuid.NewString(),
		GuestID:    strings.TrimSpace(input.GuestID),
		GuestEmail: strings.TrimSpace(input.GuestEmail),
		CheckIn:    input.CheckIn,
		CheckOut:   input.CheckOut,
		Adults:     input.Adults,
		Children:   input.Children,
		Lines:      buildLines(input.Lines),
		State:      domain.ReservationDraft,
		OrderedAt:  s.clock.Now(),
	}
	if res.GuestID == "" {
		return nil, domain.NewValidationError("guest is required")
	}
	if err := s.validate(ctx, res); err != nil {
		return nil, err
	}

	number, err := s.seq.Next(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	res.Number = number

	if err := s.store.Reservations.Create(ctx, res); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "number": res.Number}).Info("reservation created")
	return res, nil
}

func buildLines(inputs []LineInput) []domain.ReservationLine {
	lines := make([]domain.ReservationLine, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, domain.ReservationLine{
			ID:         uuid.NewString(),
			Name:       strings.TrimSpace(in.Name),
			CategoryID: in.CategoryID,
			ZoneIDs:    append([]string(nil), in.ZoneIDs...),
		})
	}
	return lines
}

// validate checks dates, head-count and that every chosen zone exists.
func (s *ReservationService) validate(ctx context.Context, res *domain.Reservation) error {
	if !res.CheckIn.After(s.clock.Now()) {
		return domain.NewValidationError("check-in must be in the future")
	}
	if !res.CheckOut.After(res.CheckIn) {
		return domain.NewValidationError("check-out must be after check-in")
	}
	if res.Adults <= 0 {
		return domain.NewValidationError("at least one adult is required")
	}
	if res.Children < 0 {
		return domain.NewValidationError("children must not be negative")
	}
	for _, id := range res.ZoneIDs() {
		if _, err := s.store.Zones.GetByID(ctx, id); err != nil {
			if errors.Is(err, domain.ErrZoneNotFound) {
				return domain.NewValidationError("zone %s does not exist", id)
			}
			return err
		}
	}
	return nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.store.Reservations.GetByID(ctx, id)
}

// UpdateDraft edits a draft. It holds the ledger locks of both the old and
// the new zones while writing, so it cannot interleave with Confirm.
func (s *ReservationService) UpdateDraft(ctx context.Context, id string, input UpdateInput) (*domain.Reservation, error) {
	res, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.State != domain.ReservationDraft {
		return nil, &domain.LifecycleError{Op: "update", State: string(res.State)}
	}

	// Unknown zones are a validation error, not a failed lock.
	preview := *res
	applyUpdate(&preview, input)
	if err := s.validate(ctx, &preview); err != nil {
		return nil, err
	}
	locked := append(res.ZoneIDs(), preview.ZoneIDs()...)

	var updated *domain.Reservation
	err = s.ledger.Batch(ctx, locked, func(ctx context.Context, _ *ledger.Tx) error {
		current, err := s.store.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.State != domain.ReservationDraft {
			return &domain.LifecycleError{Op: "update", State: string(current.State)}
		}
		if !subsetOf(current.ZoneIDs(), locked) {
			return errChanged("update", current)
		}
		applyUpdate(current, input)
		if err := s.validate(ctx, current); err != nil {
			return err
		}
		if err := s.store.Reservations.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyUpdate(res *domain.Reservation, input UpdateInput) {
	if input.GuestEmail != nil {
		res.GuestEmail = strings.TrimSpace(*input.GuestEmail)
	}
	if input.CheckIn != nil {
		res.CheckIn = *input.CheckIn
	}
	if input.CheckOut != nil {
		res.CheckOut = *input.CheckOut
	}
	if input.Adults != nil {
		res.Adults = *input.Adults
	}
	if input.Children != nil {
		res.Children = *input.Children
	}
	if input.Lines != nil {
		res.Lines = buildLines(input.Lines)
	}
}

func errChanged(op string, res *domain.Reservation) error {
	return &domain.LifecycleError{Op: op, State: string(res.State), Msg: "reservation changed concurrently, retry"}
}

// subsetOf reports whether every id of ids is in set.
func subsetOf(ids, set []string) bool {
	in := make(map[string]struct{}, len(set))
	for _, id := range set {
		in[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := in[id]; !ok {
			return false
		}
	}
	return true
}

func sameZones(a, b []string) bool {
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func (s *ReservationService) checkCapacity(ctx context.Context, res *domain.Reservation, zoneIDs []string) error {
	capacity := 0
	for _, zid := range zoneIDs {
		zone, err := s.store.Zones.GetByID(ctx, zid)
		if err != nil {
			return err
		}
		capacity += zone.Capacity()
	}
	if capacity < res.Guests() {
		return domain.NewValidationError("zone capacity %d is less than the %d guests", capacity, res.Guests())
	}
	return nil
}

// Confirm assigns every chosen zone for the stay in one ledger batch. A
// conflict on any zone leaves the reservation in draft with nothing
// assigned. The zones and dates are read again under the ledger locks; if
// the draft was edited in between, Confirm fails instead of assigning the
// zones it read first.
func (s *ReservationService) Confirm(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.State != domain.ReservationDraft {
		return nil, &domain.LifecycleError{Op: "confirm", State: string(res.State)}
	}

	zoneIDs := res.ZoneIDs()
	if len(zoneIDs) == 0 {
		return nil, domain.NewValidationError("reservation %s has no zones", res.Number)
	}
	if err := s.checkCapacity(ctx, res, zoneIDs); err != nil {
		return nil, err
	}

	err = s.ledger.Batch(ctx, zoneIDs, func(ctx context.Context, tx *ledger.Tx) error {
		current, err := s.store.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.State != domain.ReservationDraft {
			return &domain.LifecycleError{Op: "confirm", State: string(current.State)}
		}
		if !sameZones(current.ZoneIDs(), zoneIDs) {
			return errChanged("confirm", current)
		}
		if current.Guests() != res.Guests() {
			if err := s.checkCapacity(ctx, current, zoneIDs); err != nil {
				return err
			}
		}
		for _, zid := range zoneIDs {
			if _, err := tx.TryAssign(ctx, ledger.AssignRequest{
				ZoneID:   zid,
				Interval: current.Interval(),
				Source:   domain.SourceReservation,
				Owner:    current.Owner(),
			}); err != nil {
				return err
			}
		}
		res = current
		return s.store.Reservations.UpdateState(ctx, id, domain.ReservationConfirm)
	})
	if err != nil {
		return nil, err
	}

	res.State = domain.ReservationConfirm
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "zones": len(zoneIDs)}).Info("reservation confirmed")
	s.publish(ctx, kafka.EventReservationConfirmed, res)
	s.notify(ctx, res, TemplateConfirmed)
	return res, nil
}

// Cancel releases every booking the reservation owns and moves it to
// cancel. Only draft and confirmed reservations can be cancelled.
func (s *ReservationService) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.State.Terminal() {
		return nil, &domain.LifecycleError{Op: "cancel", State: string(res.State)}
	}

	owned, err := s.store.Bookings.ListByOwner(ctx, res.Owner())
	if err != nil {
		return nil, err
	}
	zoneIDs := make([]string, 0, len(owned))
	for _, b := range owned {
		zoneIDs = append(zoneIDs, b.ZoneID)
	}

	err = s.ledger.Batch(ctx, zoneIDs, func(ctx context.Context, tx *ledger.Tx) error {
		current, err := s.store.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.State.Terminal() {
			return &domain.LifecycleError{Op: "cancel", State: string(current.State)}
		}
		if err := tx.ReleaseOwner(ctx, res.Owner(), domain.BookingCancelled); err != nil {
			return err
		}
		return s.store.Reservations.UpdateState(ctx, id, domain.ReservationCancel)
	})
	if err != nil {
		return nil, err
	}

	res.State = domain.ReservationCancel
	s.log.WithField("reservation_id", res.ID).Info("reservation cancelled")
	s.publish(ctx, kafka.EventReservationCancelled, res)
	s.notify(ctx, res, TemplateCancelled)
	return res, nil
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	res, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.State != domain.ReservationDraft {
		return &domain.LifecycleError{Op: "delete", State: string(res.State)}
	}
	return s.store.Reservations.Delete(ctx, id)
}

// MarkDone moves a confirmed reservation to done. It joins the caller's
// transaction when one is open.
func (s *ReservationService) MarkDone(ctx context.Context, id string) error {
	res, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.State != domain.ReservationConfirm {
		return &domain.LifecycleError{Op: "done", State: string(res.State)}
	}
	return s.store.Reservations.UpdateState(ctx, id, domain.ReservationDone)
}

// QuickReserve creates a one-zone draft reservation.
func (s *ReservationService) QuickReserve(ctx context.Context, input QuickReserveInput) (*domain.Reservation, error) {
	zone, err := s.store.Zones.GetByID(ctx, input.ZoneID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, CreateInput{
		GuestID:    input.GuestID,
		GuestEmail: input.GuestEmail,
		CheckIn:    input.CheckIn,
		CheckOut:   input.CheckOut,
		Adults:     input.Adults,
		Lines: []LineInput{{
			Name:       zone.Name,
			CategoryID: zone.CategoryID,
			ZoneIDs:    []string{zone.ID},
		}},
	})
}

// DueForReminder lists confirmed reservations with a contact e-mail whose
// check-in falls in [now+24h, now+24h+window).
func (s *ReservationService) DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]domain.Reservation, error) {
	from := now.Add(24 * time.Hour)
	to := from.Add(window)
	candidates, err := s.store.Reservations.ListCheckInBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	due := make([]domain.Reservation, 0, len(candidates))
	for _, res := range candidates {
		if res.State != domain.ReservationConfirm || res.GuestEmail == "" {
			continue
		}
		if res.CheckIn.Before(from) || !res.CheckIn.Before(to) {
			continue
		}
		due = append(due, res)
	}
	return due, nil
}

// SendReminders notifies every due reservation and reports how many were
// handed to the notifier. A failed notification does not stop the rest.
func (s *ReservationService) SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	if s.notifier == nil {
		return 0, errors.New("no notifier configured")
	}
	due, err := s.DueForReminder(ctx, now, window)
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for _, res := range due {
		if err := s.notifier.Notify(ctx, res, TemplateReminder24h); err != nil {
			s.log.WithError(err).WithField("reservation_id", res.ID).Warn("reminder not sent")
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res *domain.Reservation) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.ParkEvent{
		Type:          eventType,
		ReservationID: res.ID,
		Number:        res.Number,
		GuestID:       res.GuestID,
		ZoneIDs:       res.ZoneIDs(),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		State:         string(res.State),
		OccurredAt:    s.clock.Now(),
	}
	if err := s.producer.Publish(ctx, s.topic, res.ID, event); err != nil {
		s.log.WithError(err).WithField("event", eventType).Warn("event not published")
	}
}

// notify hands a guest message to the notifier. Reservations without a
// contact e-mail are skipped.
func (s *ReservationService) notify(ctx context.Context, res *domain.Reservation, template string) {
	if s.notifier == nil || res.GuestEmail == "" {
		return
	}
	if err := s.notifier.Notify(ctx, *res, template); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"reservation_id": res.ID, "template": template}).Warn("notification not sent")
	}
}

var _ ReservationUseCase = (*ReservationService)(nil)
