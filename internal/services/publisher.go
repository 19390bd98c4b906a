package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"tixup/internal/logger"
	"tixup/internal/models"
)

// OrderCompletedEvent is published after a successful checkout
type OrderCompletedEvent struct {
	OrderNumber string               `json:"order_number"`
	EventName   string               `json:"event_name"`
	BuyerEmail  string               `json:"buyer_email"`
	Total       string               `json:"total"`
	Lines       []models.SummaryLine `json:"lines"`
	PaymentID   string               `json:"payment_id"`
	CompletedAt time.Time            `json:"completed_at"`
}

// NewOrderCompletedEvent builds the event for a receipt
func NewOrderCompletedEvent(receipt *models.Receipt) OrderCompletedEvent {
	return OrderCompletedEvent{
		OrderNumber: receipt.OrderNumber,
		EventName:   receipt.EventName,
		BuyerEmail:  receipt.BuyerEmail,
		Total:       receipt.Total.StringFixed(2),
		Lines:       receipt.Lines,
		PaymentID:   receipt.PaymentID,
		CompletedAt: receipt.CreatedAt,
	}
}

// OrderPublisher announces completed orders to downstream consumers
type OrderPublisher interface {
	PublishOrderCompleted(ctx context.Context, event OrderCompletedEvent) error
}

// LogOrderPublisher only logs events. Used when no broker is configured.
type LogOrderPublisher struct {
	logger *zap.Logger
}

// NewLogOrderPublisher creates a publisher that logs events
func NewLogOrderPublisher(logger *zap.Logger) *LogOrderPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogOrderPublisher{logger: logger}
}

func (p *LogOrderPublisher) PublishOrderCompleted(ctx context.Context, event OrderCompletedEvent) error {
	p.logger.Info("order completed",
		zap.String("order_number", event.OrderNumber),
		zap.String("event_name", event.EventName),
		zap.String("buyer", logger.MaskEmail(event.BuyerEmail)),
		zap.String("total", event.Total))
	return nil
}

// amqpChannel is the part of *amqp.Channel the publisher uses
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPOrderPublisher publishes persistent JSON messages to a durable
// RabbitMQ queue through the default exchange.
type AMQPOrderPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
}

// NewAMQPOrderPublisher dials the broker and declares the queue
func NewAMQPOrderPublisher(url, queue string) (*AMQPOrderPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}

	publisher, err := newAMQPOrderPublisher(ch, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher.conn = conn
	return publisher, nil
}

func newAMQPOrderPublisher(ch amqpChannel, queue string) (*AMQPOrderPublisher, error) {
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}
	return &AMQPOrderPublisher{channel: ch, queue: queue}, nil
}

func (p *AMQPOrderPublisher) PublishOrderCompleted(ctx context.Context, event OrderCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.OrderNumber,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	// Channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

// Close releases the channel and connection
func (p *AMQPOrderPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
