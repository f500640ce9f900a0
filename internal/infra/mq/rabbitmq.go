package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/velours/internal/config"
)

// OrderEventsQueue 下单成功事件队列
const OrderEventsQueue = "order_events"

// OrderPlaced 下单成功事件
type OrderPlaced struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	Total     string    `json:"total"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher 事件投递
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev *OrderPlaced) error
	Close() error
}

// Dial 建立 RabbitMQ 连接
func Dial(cfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	return conn, nil
}

// NewPublisher URL 为空或连接失败时返回空实现，下单不依赖 MQ
func NewPublisher(cfg *config.RabbitMQConfig) Publisher {
	if cfg == nil || cfg.URL == "" {
		return NopPublisher{}
	}
	conn, err := Dial(cfg)
	if err != nil {
		zap.L().Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
		return NopPublisher{}
	}
	return &amqpPublisher{conn: conn}
}

type amqpPublisher struct {
	conn *amqp.Connection
	mu   sync.Mutex
	ch   *amqp.Channel
}

// channel 复用一个 channel，关闭后重新打开
func (p *amqpPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err = ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *amqpPublisher) PublishOrderPlaced(ctx context.Context, ev *OrderPlaced) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(
		ctx,
		"",
		OrderEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.CreatedAt,
			Body:         body,
		},
	)
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}

// NopPublisher 未配置 MQ 时使用
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, *OrderPlaced) error { return nil }
func (NopPublisher) Close() error { return nil }

// DecodeOrderPlaced 消费端解析
func DecodeOrderPlaced(body []byte) (*OrderPlaced, error) {
	var ev OrderPlaced
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	if ev.OrderID <= 0 {
		return nil, fmt.Errorf("order event without order id")
	}
	return &ev, nil
}
