package kafka

import (
	"context"

	"github.com/Domenick1991/paintballpark/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// RetryPublisher is satisfied by *Producer. Notifier prefers it so a
// guest message survives a short broker hiccup.
type RetryPublisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error
}

const notifyAttempts = 3

// Notifier turns reservation notifications into messages on the
// notifications topic; the worker delivers them.
type Notifier struct {
	publisher Publisher
	topic     string
}

func NewNotifier(publisher Publisher, topic string) *Notifier {
	return &Notifier{publisher: publisher, topic: topic}
}

func (n *Notifier) Notify(ctx context.Context, res domain.Reservation, template string) error {
	msg := Notification{
		Template:      template,
		ReservationID: res.ID,
		Number:        res.Number,
		Email:         res.GuestEmail,
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		Guests:        res.Guests(),
	}
	if rp, ok := n.publisher.(RetryPublisher); ok {
		return rp.PublishWithRetry(ctx, n.topic, res.ID, msg, notifyAttempts)
	}
	return n.publisher.Publish(ctx, n.topic, res.ID, msg)
}
