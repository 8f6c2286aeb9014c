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

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

const publishTimeout = 3 * time.Second

// Publisher emits cart events on the topic exchange. Publishes are
// serialized because an amqp channel must not be shared by concurrent writers.
type Publisher struct {
	mu     sync.Mutex
	ch     channel
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(conn *amqp.Connection, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch, logger)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, logger *zap.Logger) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, logger: logger, now: time.Now}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartCheckedOut(ctx context.Context, cart domain.Cart, sale domain.Sale, items []domain.CartItem) error {
	ev := Envelope[CartCheckedOut]{
		EventName:    CartCheckedOutEventName,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     producerName,
		PartitionKey: cart.ID,
		OccurredAt:   p.now().UTC(),
		Payload:      newCartCheckedOut(cart, sale, items),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", CartCheckedOutEventName, err)
	}

	if err := p.publishJSON(ctx, CartCheckedOutRoutingKey, ev.EventID, body); err != nil {
		return fmt.Errorf("publish %s: %w", CartCheckedOutEventName, err)
	}

	p.logger.Info("event published",
		zap.String("event", CartCheckedOutEventName),
		zap.String("event_id", ev.EventID),
		zap.String("cart_id", cart.ID))
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
}
