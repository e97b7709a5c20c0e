package messaging

import (
	"log"
	"time"

	"platewatch/catalog"
)

// FeedHandler receives decoded feed messages. The engine implements it.
type FeedHandler interface {
	ApplyActiveOrders(orders []catalog.Order)
	ApplyStatusChange(orderID string, status catalog.OrderStatus, changedAt time.Time)
}

// Consumer subscribes to the feed topics and routes messages to the handler.
type Consumer struct {
	client  *Client
	cfg     feedTopics
	handler FeedHandler
}

type feedTopics struct {
	Feed  string
	Event string
}

func NewConsumer(client *Client, feedTopic, eventTopic string, handler FeedHandler) *Consumer {
	return &Consumer{
		client:  client,
		cfg:     feedTopics{Feed: feedTopic, Event: eventTopic},
		handler: handler,
	}
}

func (c *Consumer) Start() error {
	if err := c.client.Subscribe(c.cfg.Feed, c.handleMessage); err != nil {
		return err
	}
	return c.client.Subscribe(c.cfg.Event, c.handleMessage)
}

func (c *Consumer) handleMessage(payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		log.Printf("messaging: decode error: %v", err)
		return
	}

	switch p := env.Payload.(type) {
	case ActiveOrders:
		log.Printf("messaging: snapshot from %s with %d orders", env.Source, len(p.Orders))
		c.handler.ApplyActiveOrders(p.Orders)
	case StatusChanged:
		changedAt := p.ChangedAt
		if changedAt.IsZero() {
			changedAt = env.SentAt
		}
		c.handler.ApplyStatusChange(p.OrderID, p.Status, changedAt)
	default:
		log.Printf("messaging: unhandled payload type: %T", p)
	}
}
