package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/contracts"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventType    = "ScrapedPropertyEvent"
	eventVersion = "1.0.0"

	publishTimeout = 10 * time.Second
)

// RabbitMQScrapedPropertyQueueAdapter публикует нормализованные листинги
// в обменник для downstream-потребителей. Реализует RecordSinkPort.
type RabbitMQScrapedPropertyQueueAdapter struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitMQScrapedPropertyQueueAdapter создает новый экземпляр
func NewRabbitMQScrapedPropertyQueueAdapter(url, exchange, routingKey string) (*RabbitMQScrapedPropertyQueueAdapter, error) {
	if url == "" {
		return nil, fmt.Errorf("rabbitmq url cannot be empty")
	}
	if exchange == "" {
		return nil, fmt.Errorf("exchange cannot be empty")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("routingKey cannot be empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}

	return &RabbitMQScrapedPropertyQueueAdapter{
		connection: conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// WriteOutcome публикует каждую запись года отдельным сообщением.
// Тело сообщения проверяется по схеме контракта до отправки.
func (a *RabbitMQScrapedPropertyQueueAdapter) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "RabbitMQScrapedPropertyQueueAdapter",
		"routing_key": a.routingKey,
		"year":        outcome.Year,
	})

	published := 0
	for _, rec := range outcome.Records {
		body, err := json.Marshal(toEventDTO(rec))
		if err != nil {
			logger.Error("Failed to marshal listing to JSON", err, port.Fields{"listing_id": rec.ListingID})
			return fmt.Errorf("failed to marshal listing %s to JSON: %w", rec.ListingID, err)
		}

		if err := contracts.ValidateEvent(eventType, eventVersion, body); err != nil {
			logger.Error("Event failed contract validation", err, port.Fields{"listing_id": rec.ListingID})
			return fmt.Errorf("listing %s violates event contract: %w", rec.ListingID, err)
		}

		msg := amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers: amqp.Table{
				"event-type":    eventType,
				"event-version": eventVersion,
			},
		}

		traceID := contextkeys.TraceIDFromContext(ctx)
		if traceID != "" {
			msg.Headers["x-trace-id"] = traceID
		}

		publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = a.channel.PublishWithContext(
			publishCtx,
			a.exchange,
			a.routingKey,
			false, // mandatory
			false, // immediate
			msg,
		)
		cancel()
		if err != nil {
			logger.Error("Failed to publish listing", err, port.Fields{"listing_id": rec.ListingID})
			return fmt.Errorf("failed to publish listing %s: %w", rec.ListingID, err)
		}
		published++
	}

	if published > 0 {
		logger.Info("Successfully published listings", port.Fields{"count": published})
	}
	return nil
}

// Close закрывает канал и соединение.
func (a *RabbitMQScrapedPropertyQueueAdapter) Close() error {
	var firstErr error
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			firstErr = err
		}
		a.channel = nil
	}
	if a.connection != nil {
		if err := a.connection.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.connection = nil
	}
	return firstErr
}
