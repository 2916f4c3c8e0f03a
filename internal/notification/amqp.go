package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publisherAppID = "loan-recovery"

// AMQPSink publishes notifications to a RabbitMQ topic exchange, routed by
// notification kind. An external consumer owns the actual fan-out (push,
// email, SMS).
type AMQPSink struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

var _ Sink = (*AMQPSink)(nil)

func NewAMQPSink(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (*AMQPSink, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &AMQPSink{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With(slog.String("component", "AMQPSink"), slog.String("exchange", exchangeName)),
	}, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, n Notification) error {
	routingKey := "notification." + n.Kind
	logCtx := s.logger.With(slog.String("routingKey", routingKey))

	channel, err := s.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	body, err := json.Marshal(n)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal notification to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = channel.PublishWithContext(
		ctx,
		s.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish notification", slog.Any("error", err))
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	logCtx.DebugContext(ctx, "Notification published", "userID", n.UserID)
	return nil
}
