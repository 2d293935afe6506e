package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/paintballpark/internal/kafka"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

func reminder() kafka.Notification {
	return kafka.Notification{
		Template:      "reservation_reminder_24h",
		ReservationID: "r1",
		Number:        "RES/0007",
		Email:         "guest@example.com",
		CheckIn:       time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC),
		Guests:        6,
	}
}

func TestRender_Reminder(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSender(new(MockDialer), "park@example.com", logger)

	m, err := s.Render(reminder())
	require.NoError(t, err)
	assert.Equal(t, []string{"guest@example.com"}, m.GetHeader("To"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "RES/0007")
	assert.Contains(t, buf.String(), "10/01/2030 12:00")
}

func TestRender_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSender(new(MockDialer), "park@example.com", logger)

	n := reminder()
	n.Template = "nope"
	_, err := s.Render(n)
	assert.Error(t, err)

	n = reminder()
	n.Email = ""
	_, err = s.Render(n)
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dialer := new(MockDialer)
	s := NewSender(dialer, "park@example.com", logger)

	dialer.On("DialAndSend", mock.Anything).Return(nil).Once()
	require.NoError(t, s.Send(context.Background(), reminder()))
	assert.Equal(t, "email sent", hook.LastEntry().Message)

	dialer.On("DialAndSend", mock.Anything).Return(errors.New("smtp down")).Once()
	assert.Error(t, s.Send(context.Background(), reminder()))
	dialer.AssertExpectations(t)
}
