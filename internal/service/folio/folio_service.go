package folio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/kafka"
	"github.com/Domenick1991/paintballpark/internal/ledger"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/Domenick1991/paintballpark/internal/sequence"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type FolioUseCase interface {
	Materialize(ctx context.Context, reservationID string) (*domain.Folio, error)
	CreateDirect(ctx context.Context, input DirectInput) (*domain.Folio, error)
	Get(ctx context.Context, id string) (*domain.Folio, error)
	RemoveLine(ctx context.Context, folioID, lineID string) error
	AddServiceLine(ctx context.Context, folioID, serviceID string, quantity int) (*domain.Folio, error)
	Invoice(ctx context.Context, folioID string) (*domain.Folio, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Invoicer hands a folio to accounting and returns its invoice reference.
type Invoicer interface {
	Invoice(ctx context.Context, folio domain.Folio) (string, error)
}

// Completer moves a materialized reservation to done.
type Completer interface {
	MarkDone(ctx context.Context, reservationID string) error
}

type DirectLineInput struct {
	ZoneID string `json:"zone_id"`
}

type ServiceLineInput struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

type DirectInput struct {
	GuestID      string             `json:"guest_id"`
	CheckIn      time.Time          `json:"check_in"`
	CheckOut     time.Time          `json:"check_out"`
	Lines        []DirectLineInput  `json:"lines"`
	ServiceLines []ServiceLineInput `json:"service_lines"`
}

type FolioService struct {
	store     *repository.Store
	ledger    *ledger.Ledger
	seq       sequence.Generator
	completer Completer
	clock     clock.Clock
	locale    clock.Locale
	grace     interval.GraceRule
	prefix    string
	invoicer  Invoicer
	producer  Producer
	topic     string
	log       logrus.FieldLogger
}

type FolioServiceOption func(*FolioService)

func WithGrace(rule interval.GraceRule) FolioServiceOption {
	return func(s *FolioService) {
		s.grace = rule
	}
}

func WithInvoicer(inv Invoicer) FolioServiceOption {
	return func(s *FolioService) {
		s.invoicer = inv
	}
}

func WithEvents(producer Producer, topic string) FolioServiceOption {
	return func(s *FolioService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithNumberPrefix(prefix string) FolioServiceOption {
	return func(s *FolioService) {
		s.prefix = prefix
	}
}

func NewFolioService(
	store *repository.Store,
	l *ledger.Ledger,
	seq sequence.Generator,
	completer Completer,
	clk clock.Clock,
	locale clock.Locale,
	log logrus.FieldLogger,
	opts ...FolioServiceOption,
) *FolioService {
	s := &FolioService{
		store:     store,
		ledger:    l,
		seq:       seq,
		completer: completer,
		clock:     clk,
		locale:    locale,
		prefix:    "FOL",
		log:       log.WithField("component", "folio"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func alreadyMaterialized(state domain.ReservationState) error {
	return &domain.LifecycleError{Op: domain.ErrAlreadyMaterialized.Op, State: string(state), Msg: domain.ErrAlreadyMaterialized.Msg}
}

// Materialize turns a confirmed reservation into its folio: one reserved
// line per chosen zone, billed for the stay's duration. The zones are
// re-marked occupied, the folio stored and the reservation moved to done
// in one batch.
func (s *FolioService) Materialize(ctx context.Context, reservationID string) (*domain.Folio, error) {
	res, err := s.store.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if len(res.FolioIDs) > 0 || res.State == domain.ReservationDone {
		return nil, alreadyMaterialized(res.State)
	}
	if res.State != domain.ReservationConfirm {
		return nil, &domain.LifecycleError{Op: "materialize", State: string(res.State)}
	}
	if !res.CheckIn.Before(res.CheckOut) {
		return nil, domain.NewValidationError("check-out must be after check-in")
	}

	duration := interval.ComputeDuration(res.CheckIn, res.CheckOut, s.grace, s.locale)
	folio := &domain.Folio{
		ID:            uuid.NewString(),
		GuestID:       res.GuestID,
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		Duration:      duration,
		ReservationID: res.ID,
	}
	for _, line := range res.Lines {
		for _, zid := range line.ZoneIDs {
			zone, err := s.store.Zones.GetByID(ctx, zid)
			if err != nil {
				return nil, err
			}
			folio.Lines = append(folio.Lines, domain.FolioLine{
				ID:         uuid.NewString(),
				ZoneID:     zid,
				CheckIn:    res.CheckIn,
				CheckOut:   res.CheckOut,
				Quantity:   duration,
				UnitPrice:  zone.Catalog.ListPrice,
				IsReserved: true,
			})
		}
	}

	number, err := s.seq.Next(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	folio.Number = number

	err = s.ledger.Batch(ctx, res.ZoneIDs(), func(ctx context.Context, tx *ledger.Tx) error {
		current, err := s.store.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if len(current.FolioIDs) > 0 || current.State != domain.ReservationConfirm {
			return alreadyMaterialized(current.State)
		}
		bookings := make(map[string]string)
		for _, zid := range res.ZoneIDs() {
			b, err := tx.Refresh(ctx, zid, res.Owner())
			if err != nil {
				return err
			}
			bookings[zid] = b.ID
		}
		for i := range folio.Lines {
			folio.Lines[i].BookingID = bookings[folio.Lines[i].ZoneID]
		}
		if err := s.store.Folios.Create(ctx, folio); err != nil {
			return err
		}
		return s.completer.MarkDone(ctx, reservationID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"folio_id":       folio.ID,
		"reservation_id": res.ID,
		"duration":       duration,
	}).Info("folio materialized")
	s.publish(ctx, kafka.EventFolioCreated, folio)
	s.publishDone(ctx, res)
	return folio, nil
}

// CreateDirect opens a folio without a reservation. Every zone line claims
// its zone in the ledger; one conflict rejects the whole folio.
func (s *FolioService) CreateDirect(ctx context.Context, input DirectInput) (*domain.Folio, error) {
	guest := strings.TrimSpace(input.GuestID)
	if guest == "" {
		return nil, domain.NewValidationError("guest is required")
	}
	if !input.CheckIn.Before(input.CheckOut) {
		return nil, domain.NewValidationError("check-out must be after check-in")
	}
	if len(input.Lines) == 0 {
		return nil, domain.NewValidationError("folio needs at least one zone line")
	}

	duration := interval.ComputeDuration(input.CheckIn, input.CheckOut, s.grace, s.locale)
	folio := &domain.Folio{
		ID:       uuid.NewString(),
		GuestID:  guest,
		CheckIn:  input.CheckIn,
		CheckOut: input.CheckOut,
		Duration: duration,
	}
	zoneIDs := make([]string, 0, len(input.Lines))
	for _, in := range input.Lines {
		zone, err := s.store.Zones.GetByID(ctx, in.ZoneID)
		if err != nil {
			if errors.Is(err, domain.ErrZoneNotFound) {
				return nil, domain.NewValidationError("zone %s does not exist", in.ZoneID)
			}
			return nil, err
		}
		folio.Lines = append(folio.Lines, domain.FolioLine{
			ID:        uuid.NewString(),
			ZoneID:    zone.ID,
			CheckIn:   input.CheckIn,
			CheckOut:  input.CheckOut,
			Quantity:  duration,
			UnitPrice: zone.Catalog.ListPrice,
		})
		zoneIDs = append(zoneIDs, zone.ID)
	}
	for _, in := range input.ServiceLines {
		line, err := s.serviceLine(ctx, in.ServiceID, in.Quantity)
		if err != nil {
			return nil, err
		}
		folio.ServiceLines = append(folio.ServiceLines, line)
	}

	number, err := s.seq.Next(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	folio.Number = number

	iv := interval.Interval{Start: input.CheckIn, End: input.CheckOut}
	err = s.ledger.Batch(ctx, zoneIDs, func(ctx context.Context, tx *ledger.Tx) error {
		for i := range folio.Lines {
			line := &folio.Lines[i]
			b, err := tx.TryAssign(ctx, ledger.AssignRequest{
				ZoneID:   line.ZoneID,
				Interval: iv,
				Source:   domain.SourceDirectFolio,
				Owner:    line.Owner(),
			})
			if err != nil {
				return err
			}
			line.BookingID = b.ID
		}
		return s.store.Folios.Create(ctx, folio)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"folio_id": folio.ID, "zones": len(zoneIDs)}).Info("direct folio created")
	s.publish(ctx, kafka.EventFolioCreated, folio)
	return folio, nil
}

func (s *FolioService) Get(ctx context.Context, id string) (*domain.Folio, error) {
	return s.store.Folios.GetByID(ctx, id)
}

// RemoveLine drops a zone line and releases the booking behind it.
func (s *FolioService) RemoveLine(ctx context.Context, folioID, lineID string) error {
	folio, err := s.store.Folios.GetByID(ctx, folioID)
	if err != nil {
		return err
	}
	if folio.Order.Invoiced() {
		return &domain.LifecycleError{Op: "remove line", Msg: "folio already invoiced"}
	}
	var line *domain.FolioLine
	for i := range folio.Lines {
		if folio.Lines[i].ID == lineID {
			line = &folio.Lines[i]
			break
		}
	}
	if line == nil {
		return domain.ErrFolioNotFound
	}

	err = s.ledger.Batch(ctx, []string{line.ZoneID}, func(ctx context.Context, tx *ledger.Tx) error {
		if line.BookingID != "" {
			if err := tx.Release(ctx, line.BookingID, domain.BookingUnassigned); err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
				return err
			}
		}
		return s.store.Folios.DeleteLine(ctx, folioID, lineID)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"folio_id": folioID, "line_id": lineID, "zone_id": line.ZoneID}).Info("folio line removed")
	return nil
}

func (s *FolioService) serviceLine(ctx context.Context, serviceID string, quantity int) (domain.ServiceLine, error) {
	if quantity <= 0 {
		return domain.ServiceLine{}, domain.NewValidationError("service quantity must be more than 0")
	}
	svc, err := s.store.Catalog.GetService(ctx, serviceID)
	if err != nil {
		return domain.ServiceLine{}, err
	}
	return domain.ServiceLine{
		ID:        uuid.NewString(),
		ServiceID: svc.ID,
		Name:      svc.Name,
		Quantity:  quantity,
		UnitPrice: svc.Catalog.ListPrice,
	}, nil
}

func (s *FolioService) AddServiceLine(ctx context.Context, folioID, serviceID string, quantity int) (*domain.Folio, error) {
	folio, err := s.store.Folios.GetByID(ctx, folioID)
	if err != nil {
		return nil, err
	}
	if folio.Order.Invoiced() {
		return nil, &domain.LifecycleError{Op: "add service", Msg: "folio already invoiced"}
	}
	line, err := s.serviceLine(ctx, serviceID, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.store.Folios.AddServiceLine(ctx, folioID, line); err != nil {
		return nil, err
	}
	folio.ServiceLines = append(folio.ServiceLines, line)
	return folio, nil
}

// Invoice hands the folio to accounting and stores the returned reference.
func (s *FolioService) Invoice(ctx context.Context, folioID string) (*domain.Folio, error) {
	if s.invoicer == nil {
		return nil, errors.New("no invoicer configured")
	}
	folio, err := s.store.Folios.GetByID(ctx, folioID)
	if err != nil {
		return nil, err
	}
	if folio.Order.Invoiced() {
		return nil, &domain.LifecycleError{Op: "invoice", Msg: "folio already invoiced"}
	}

	ref, err := s.invoicer.Invoice(ctx, *folio)
	if err != nil {
		return nil, err
	}
	folio.Order = domain.OrderRef{InvoiceRef: ref, InvoicedAt: s.clock.Now()}
	if err := s.store.Folios.SetOrder(ctx, folioID, folio.Order); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"folio_id": folio.ID, "invoice_ref": ref}).Info("folio invoiced")
	s.publish(ctx, kafka.EventFolioInvoiced, folio)
	return folio, nil
}

func (s *FolioService) publish(ctx context.Context, eventType string, f *domain.Folio) {
	if s.producer == nil || s.topic == "" {
		return
	}
	zoneIDs := make([]string, 0, len(f.Lines))
	for _, l := range f.Lines {
		zoneIDs = append(zoneIDs, l.ZoneID)
	}
	event := kafka.ParkEvent{
		Type:          eventType,
		ReservationID: f.ReservationID,
		FolioID:       f.ID,
		Number:        f.Number,
		GuestID:       f.GuestID,
		ZoneIDs:       zoneIDs,
		CheckIn:       f.CheckIn,
		CheckOut:      f.CheckOut,
		OccurredAt:    s.clock.Now(),
	}
	s.send(ctx, f.ID, event)
}

// publishDone announces the reservation's move to done. It is keyed by the
// reservation so it follows the confirm event on the same partition.
func (s *FolioService) publishDone(ctx context.Context, res *domain.Reservation) {
	if s.producer == nil || s.topic == "" {
		return
	}
	s.send(ctx, res.ID, kafka.ParkEvent{
		Type:          kafka.EventReservationDone,
		ReservationID: res.ID,
		Number:        res.Number,
		GuestID:       res.GuestID,
		ZoneIDs:       res.ZoneIDs(),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		State:         string(domain.ReservationDone),
		OccurredAt:    s.clock.Now(),
	})
}

func (s *FolioService) send(ctx context.Context, key string, event kafka.ParkEvent) {
	if err := s.producer.Publish(ctx, s.topic, key, event); err != nil {
		s.log.WithError(err).WithField("event", event.Type).Warn("event not published")
	}
}

var _ FolioUseCase = (*FolioService)(nil)
