package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/dto"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPEventRelay mirrors published transaction events to a RabbitMQ topic
// exchange so other services can react to ledger activity. It is an optional
// sink: emit failures are logged and absorbed, never surfaced to ingestion.
type AMQPEventRelay struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	metrics  MetricsRecorderInterface
	logger   *slog.Logger
}

// NewAMQPEventRelay connects to the broker and declares the exchange.
// Events are routed by username so consumers can bind per user or with
// a wildcard.
func NewAMQPEventRelay(url, exchange string, metrics MetricsRecorderInterface, logger *slog.Logger) (*AMQPEventRelay, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPEventRelay{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Emit publishes the event to the exchange with the username as routing key.
func (r *AMQPEventRelay) Emit(username string, event *dto.TransactionResponse) {
	body, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to marshal relay event", "error", err, "username", username)
		r.metrics.RecordNotification("relay_error")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange, // exchange
		username,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		r.logger.Error("failed to relay event to broker",
			"error", err,
			"username", username,
			"seq", event.Seq)
		r.metrics.RecordNotification("relay_error")
		return
	}

	r.metrics.RecordNotification("relayed")
}

// Close shuts down the broker connection.
func (r *AMQPEventRelay) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
