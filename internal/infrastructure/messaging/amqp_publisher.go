package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// OrderMessage is the body published for each received order
type OrderMessage struct {
	Shop       string               `json:"shop"`
	ReceivedAt time.Time            `json:"received_at"`
	Order      *domain.OrderPayload `json:"order"`
}

// RoutingKey is the AMQP routing key for orders of a topic
func RoutingKey(topic string) string {
	return "shopify." + topic
}

// AMQPPublisher publishes orders to a durable topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

var _ ports.OrderPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials the broker and declares the exchange
func NewAMQPPublisher(url, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	p := &AMQPPublisher{conn: conn, exchange: exchange, logger: logger}
	if err := p.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// openChannel opens a channel and declares the exchange; callers hold mu or own p
func (p *AMQPPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	p.channel = ch
	return nil
}

// PublishOrder publishes an order as a persistent JSON message
func (p *AMQPPublisher) PublishOrder(ctx context.Context, shop string, order *domain.OrderPayload) error {
	body, err := json.Marshal(OrderMessage{Shop: shop, ReceivedAt: time.Now().UTC(), Order: order})
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		if err := p.openChannel(); err != nil {
			return err
		}
	}

	// mandatory and immediate are off: unroutable orders are dropped by the broker
	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(domain.TopicOrdersCreate), false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish order: %w", err)
	}

	p.logger.Debug().
		Str("shop", shop).
		Str("orderId", order.ID).
		Str("exchange", p.exchange).
		Msg("Published order")
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	return p.conn.Close()
}

// LogPublisher only logs orders; used when no broker is configured
type LogPublisher struct {
	logger zerolog.Logger
}

var _ ports.OrderPublisher = LogPublisher{}

// NewLogPublisher creates a publisher that writes orders to the log
func NewLogPublisher(logger zerolog.Logger) LogPublisher {
	return LogPublisher{logger: logger}
}

func (p LogPublisher) PublishOrder(ctx context.Context, shop string, order *domain.OrderPayload) error {
	p.logger.Info().
		Str("shop", shop).
		Str("orderId", order.ID).
		Int("lineItems", len(order.LineItems)).
		Msg("Order received (no broker configured)")
	return nil
}
