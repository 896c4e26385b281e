package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

const (
	exchangeName = "uav_rental.events"
	exchangeType = "topic"

	EventTypeRentalStarted  = "rental.started"
	EventTypeRentalReturned = "rental.returned"

	eventVersion = "1.0.0"

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 2 * time.Second
	confirmTimeout = 2 * time.Second
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends rental lifecycle events to a RabbitMQ topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	confirms <-chan amqp.Confirmation
	log      *zap.Logger

	// confirms arrive in publish order, one publish in flight at a time
	mu sync.Mutex
}

type Event struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	EventVersion  string         `json:"event_version"`
	Timestamp     string         `json:"timestamp"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       map[string]any `json:"payload"`
}

func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	log.Info("connected to RabbitMQ", zap.String("exchange", exchangeName))

	return &Publisher{
		conn:     conn,
		channel:  ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		log:      log,
	}, nil
}

func (p *Publisher) RentalStarted(ctx context.Context, r *domain.Rental) error {
	return p.publishWithRetry(ctx, newRentalEvent(ctx, EventTypeRentalStarted, r))
}

func (p *Publisher) RentalReturned(ctx context.Context, r *domain.Rental) error {
	return p.publishWithRetry(ctx, newRentalEvent(ctx, EventTypeRentalReturned, r))
}

func newRentalEvent(ctx context.Context, eventType string, r *domain.Rental) Event {
	return Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		CorrelationID: CorrelationID(ctx),
		Payload: map[string]any{
			"rental_id":    r.ID,
			"user_id":      r.UserID,
			"equipment_id": r.EquipmentID,
			"rental_start": r.RentalStart,
			"rental_end":   r.RentalEnd,
			"active":       r.Active,
			"returned_at":  r.ReturnedAt,
		},
	}
}

// publishWithRetry publishes an event with exponential backoff retry
func (p *Publisher) publishWithRetry(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}

		err := p.channel.PublishWithContext(
			ctx,
			exchangeName,
			event.EventType,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				Timestamp:     time.Now(),
				MessageId:     event.EventID,
				CorrelationId: event.CorrelationID,
				Body:          body,
				Headers: amqp.Table{
					"event_type":    event.EventType,
					"event_version": event.EventVersion,
				},
			},
		)
		if err != nil {
			lastErr = err
			p.log.Warn("failed to publish event, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		select {
		case confirm, ok := <-p.confirms:
			if ok && confirm.Ack {
				p.log.Debug("event published",
					zap.String("event_id", event.EventID),
					zap.String("event_type", event.EventType),
				)
				return nil
			}
			lastErr = fmt.Errorf("event not acknowledged")
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmTimeout):
			lastErr = fmt.Errorf("confirmation timeout")
		}

		p.log.Warn("event publish not confirmed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	p.log.Error("failed to publish event after retries",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Int("attempts", maxRetries),
		zap.Error(lastErr),
	)
	return fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, lastErr)
}

// IsHealthy checks if the publisher connection is healthy
func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Error("failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.log.Error("failed to close connection", zap.Error(err))
			return err
		}
	}
	p.log.Info("publisher closed")
	return nil
}
