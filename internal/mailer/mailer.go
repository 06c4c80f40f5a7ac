// Package mailer composes account e-mails from queued account events.
package mailer

import (
	"encoding/json"
	"fmt"

	"taskmanager/internal/models"

	"go.uber.org/zap"
)

// Message is a plain-text e-mail ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
}

// Sender delivers a composed message.
type Sender interface {
	Send(msg Message) error
}

// LogSender records messages in the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(msg Message) error {
	s.logger.Info("account email",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Mailer turns account events into welcome and farewell messages.
type Mailer struct {
	sender Sender
	from   string
	logger *zap.Logger
}

// New creates a Mailer sending as from.
func New(sender Sender, from string, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender: sender,
		from:   from,
		logger: logger,
	}
}

// HandleEvent decodes a JSON account event and sends the matching message.
// Unknown event types are skipped.
func (m *Mailer) HandleEvent(body []byte) error {
	var event models.AccountEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode account event: %w", err)
	}
	msg, ok := m.Compose(event)
	if !ok {
		m.logger.Debug("ignoring account event", zap.String("type", event.Type))
		return nil
	}
	if err := m.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", event.Type, event.Email, err)
	}
	return nil
}

// Compose builds the message for event. The second result is false for
// events that do not produce mail or carry no recipient.
func (m *Mailer) Compose(event models.AccountEvent) (Message, bool) {
	if event.Email == "" {
		return Message{}, false
	}
	msg := Message{From: m.from, To: event.Email}
	switch event.Type {
	case models.EventAccountCreated:
		msg.Subject = fmt.Sprintf("Thanks for joining in, %s!", event.Name)
		msg.Text = fmt.Sprintf("Welcome to the app, %s. Let us know how you get along with it.", event.Name)
	case models.EventAccountDeleted:
		msg.Subject = fmt.Sprintf("Sorry to see you go, %s!", event.Name)
		msg.Text = fmt.Sprintf("Your account has been removed, %s. Is there anything we could have done to keep you on board?", event.Name)
	default:
		return Message{}, false
	}
	return msg, true
}
