package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// Routing keys published on the billing exchange.
const (
	RentalCreated   = "rental.created"
	PaymentRecorded = "payment.recorded"
	RentalEnded     = "rental.ended"
)

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

type RentalCreatedEvent struct {
	CompanyID   uuid.UUID       `json:"company_id"`
	RentalID    uuid.UUID       `json:"rental_id"`
	RentalCode  string          `json:"rental_code"`
	SpaceID     uuid.UUID       `json:"space_id"`
	StartDate   time.Time       `json:"start_date"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	Currency    string          `json:"currency"`
}

type PaymentRecordedEvent struct {
	CompanyID       uuid.UUID       `json:"company_id"`
	RentalID        uuid.UUID       `json:"rental_id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	RecordedBy      uuid.UUID       `json:"recorded_by"`
}

type RentalEndedEvent struct {
	CompanyID       uuid.UUID       `json:"company_id"`
	RentalID        uuid.UUID       `json:"rental_id"`
	SpaceID         uuid.UUID       `json:"space_id"`
	EndDate         time.Time       `json:"end_date"`
	TotalDays       int             `json:"total_days"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, payload any) error {
	msg, err := newMessage(payload)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func newMessage(payload any) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }

// NewPublisher connects to the broker at url, or returns a NoopPublisher when
// url is empty.
func NewPublisher(url, exchange string) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}
	return NewAMQPPublisher(url, exchange)
}
