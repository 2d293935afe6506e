// Package invoicing hands folios over to the accounting system through a
// RabbitMQ queue. The reference returned to the caller is the correlation
// ID accounting attaches to the invoice it creates.
package invoicing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type InvoiceLine struct {
	Kind      string `json:"kind"`
	Ref       string `json:"ref"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

type InvoiceRequest struct {
	Ref           string        `json:"ref"`
	FolioID       string        `json:"folio_id"`
	FolioNumber   string        `json:"folio_number"`
	GuestID       string        `json:"guest_id"`
	ReservationID string        `json:"reservation_id,omitempty"`
	Lines         []InvoiceLine `json:"lines"`
	Total         string        `json:"total"`
	RequestedAt   time.Time     `json:"requested_at"`
}

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch    Channel
	queue string
	conn  *amqp.Connection
}

// Dial connects to RabbitMQ and declares the durable invoice queue.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	p := NewPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

func NewPublisher(ch Channel, queue string) *Publisher {
	return &Publisher{ch: ch, queue: queue}
}

func BuildRequest(ref string, f domain.Folio, now time.Time) InvoiceRequest {
	req := InvoiceRequest{
		Ref:           ref,
		FolioID:       f.ID,
		FolioNumber:   f.Number,
		GuestID:       f.GuestID,
		ReservationID: f.ReservationID,
		Lines:         make([]InvoiceLine, 0, len(f.Lines)+len(f.ServiceLines)),
		Total:         f.Total().StringFixed(2),
		RequestedAt:   now,
	}
	for _, l := range f.Lines {
		req.Lines = append(req.Lines, InvoiceLine{
			Kind: "zone", Ref: l.ZoneID, Quantity: l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2), Amount: l.Amount().StringFixed(2),
		})
	}
	for _, l := range f.ServiceLines {
		req.Lines = append(req.Lines, InvoiceLine{
			Kind: "service", Ref: l.ServiceID, Quantity: l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2), Amount: l.Amount().StringFixed(2),
		})
	}
	return req
}

func (p *Publisher) Invoice(ctx context.Context, f domain.Folio) (string, error) {
	ref := uuid.NewString()
	body, err := json.Marshal(BuildRequest(ref, f, time.Now().UTC()))
	if err != nil {
		return "", fmt.Errorf("failed to marshal invoice request: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: ref,
		MessageId:     f.ID,
		Body:          body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish invoice request: %w", err)
	}
	return ref, nil
}

func (p *Publisher) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
