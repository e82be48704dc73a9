package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Event types published on the events exchange. The type is also the
// routing key.
const (
	EventFishListed           = "fish.listed"
	EventFishCreated          = "fish.created"
	EventFishRemoved          = "fish.removed"
	EventTankStatisticListed  = "tank.statistic.listed"
	EventTankStatisticCreated = "tank.statistic.created"
	EventTankStatisticRemoved = "tank.statistic.removed"
	EventHeartbeatChanged     = "heartbeat.changed"
	EventTankAnomaly          = "tank.statistic.anomaly"
)

// Event is a change notification emitted after a store mutation
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Resource   string    `json:"resource"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// SyncRequest asks a running client to re-list one of its stores
type SyncRequest struct {
	RequestID   string    `json:"request_id"`
	Resource    string    `json:"resource"`
	RequestedAt time.Time `json:"requested_at"`
}

// publishChannel is the part of *amqp.Channel the publisher uses
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	channel  publishChannel
	exchange string
	logger   *zap.Logger
}

// NewPublisher creates a publisher on a fresh channel and declares its
// topic exchange
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return newPublisher(ch, exchange, logger), nil
}

func newPublisher(ch publishChannel, exchange string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}
}

// Publish sends event with its type as the routing key
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	return p.PublishJSON(ctx, event.Type, event.ID, event)
}

// PublishSyncRequest sends req with routingKey
func (p *Publisher) PublishSyncRequest(ctx context.Context, routingKey string, req SyncRequest) error {
	return p.PublishJSON(ctx, routingKey, req.RequestID, req)
}

// PublishJSON sends v as a persistent JSON message
func (p *Publisher) PublishJSON(ctx context.Context, routingKey, messageID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("published message",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.String("message_id", messageID),
	)

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
