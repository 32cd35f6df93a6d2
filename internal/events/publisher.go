package events

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shopdientu/electro-shop-backend/internal/order"
)

const (
	Topic = "order.events"

	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
)

// envelope is the wire shape of one order lifecycle event.
type envelope struct {
	Event       string    `json:"event"`
	OrderID     int       `json:"orderID"`
	OrderNumber string    `json:"orderNumber"`
	UserID      *int      `json:"userID,omitempty"`
	Total       string    `json:"total"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher emits order lifecycle events to kafka. Publishing is best
// effort: a broker failure is logged and the order flow continues. A nil
// Publisher is a valid no-op, so local setups can run without kafka.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Publisher) OrderCreated(ctx context.Context, o order.Order) {
	p.publish(ctx, EventOrderCreated, o)
}

func (p *Publisher) OrderCancelled(ctx context.Context, o order.Order) {
	p.publish(ctx, EventOrderCancelled, o)
}

func (p *Publisher) publish(ctx context.Context, event string, o order.Order) {
	if p == nil {
		return
	}
	raw, err := json.Marshal(envelope{
		Event:       event,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		UserID:      o.UserID,
		Total:       o.Total.String(),
		Status:      string(o.Status),
		OccurredAt:  time.Now(),
	})
	if err != nil {
		log.Printf("events: encode %s for order %d: %v", event, o.ID, err)
		return
	}

	msg := kafka.Message{
		// key by order id so one order's events stay in one partition
		Key:   []byte(strconv.Itoa(o.ID)),
		Value: raw,
		Time:  time.Now(),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: publish %s for order %d: %v", event, o.ID, err)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
