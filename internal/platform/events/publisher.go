// Package events publishes donation lifecycle events to RabbitMQ. Publishing
// is best-effort: downstream consumers (reporting, receipts) catch up later,
// and a publish failure never affects the donation response.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// DonationCreated is the payload published after a donation record is stored.
type DonationCreated struct {
	DonationID    string    `json:"donation_id"`
	DonorID       string    `json:"donor_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	IsRecurring   bool      `json:"is_recurring"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	PublishDonationCreated(ctx context.Context, event DonationCreated) error
	Close()
}

// NopPublisher is used when RabbitMQ is not configured or unavailable at
// startup; the service keeps running without events.
type NopPublisher struct{}

func (NopPublisher) PublishDonationCreated(context.Context, DonationCreated) error { return nil }
func (NopPublisher) Close()                                                       {}

// AMQPPublisher holds the RabbitMQ connection and channel for publishing.
type AMQPPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	logger  *slog.Logger
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewAMQPPublisher connects to RabbitMQ and declares the donation event queue.
func NewAMQPPublisher(amqpURL, queue string, logger *slog.Logger) (*AMQPPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Bounded dial timeout so startup does not hang indefinitely.
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, channel: channel, queue: queue, logger: logger}, nil
}

func (p *AMQPPublisher) PublishDonationCreated(ctx context.Context, event DonationCreated) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "donation event publish failed",
			"donation_id", event.DonationID,
			"error", err.Error(),
		)
	}
	return err
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
