// Package email renders guest notifications and delivers them over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/kafka"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

type message struct {
	subject string
	body    *template.Template
}

var templates = map[string]message{
	"reservation_reminder_24h": {
		subject: "Your paintball session is tomorrow",
		body: template.Must(template.New("reminder").Parse(
			`<p>Hello,</p>
<p>this is a reminder that reservation <b>{{.Number}}</b> for {{.Guests}} players starts on {{.CheckIn.Format "02/01/2006 15:04"}}.</p>
<p>See you on the field!</p>`)),
	},
	"reservation_confirmed": {
		subject: "Reservation confirmed",
		body: template.Must(template.New("confirmed").Parse(
			`<p>Reservation <b>{{.Number}}</b> is confirmed from {{.CheckIn.Format "02/01/2006 15:04"}} to {{.CheckOut.Format "02/01/2006 15:04"}}.</p>`)),
	},
	"reservation_cancelled": {
		subject: "Reservation cancelled",
		body: template.Must(template.New("cancelled").Parse(
			`<p>Reservation <b>{{.Number}}</b> has been cancelled.</p>`)),
	},
}

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	dialer Dialer
	from   string
	log    logrus.FieldLogger
}

func NewSMTPDialer(cfg config.SMTPConfig) *gomail.Dialer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         cfg.Host,
	}
	return dialer
}

func NewSender(dialer Dialer, from string, log logrus.FieldLogger) *Sender {
	return &Sender{dialer: dialer, from: from, log: log.WithField("component", "email")}
}

// Render builds the message for n without sending it.
func (s *Sender) Render(n kafka.Notification) (*gomail.Message, error) {
	tpl, ok := templates[n.Template]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", n.Template)
	}
	if n.Email == "" {
		return nil, fmt.Errorf("reservation %s has no contact e-mail", n.ReservationID)
	}

	var body bytes.Buffer
	if err := tpl.body.Execute(&body, n); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", tpl.subject)
	m.SetBody("text/html", body.String())
	return m, nil
}

func (s *Sender) Send(ctx context.Context, n kafka.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.Render(n)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"reservation_id": n.ReservationID,
		"template":       n.Template,
	}).Info("email sent")
	return nil
}
