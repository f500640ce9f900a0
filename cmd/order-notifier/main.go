package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/infra/mq"
	"github.com/example/velours/internal/logging"
	"github.com/example/velours/internal/repository/sqldb"
	"github.com/example/velours/internal/service"
)

// order-notifier 消费下单成功事件，核对订单后记录通知
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.RabbitMQ.URL == "" {
		zap.L().Fatal("RABBITMQ_URL is required for the order notifier")
	}

	db := sqldb.Init(&cfg.Database, 2)
	orders := service.NewOrderService(sqldb.NewOrderRepository(db))

	conn, err := mq.Dial(&cfg.RabbitMQ)
	if err != nil {
		zap.L().Fatal("connect rabbitmq failed", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		zap.L().Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.OrderEventsQueue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("failed to declare queue", zap.Error(err))
	}
	if err = ch.Qos(cfg.Concurrency, 0, false); err != nil {
		zap.L().Fatal("failed to set qos", zap.Error(err))
	}

	// 手动确认
	msgs, err := ch.Consume(mq.OrderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("failed to consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().Info("order notifier started, waiting for messages...")
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("order notifier stopping")
			return
		case d, ok := <-msgs:
			if !ok {
				zap.L().Warn("delivery channel closed")
				return
			}
			handleMessage(ctx, orders, d)
		}
	}
}

func handleMessage(ctx context.Context, orders *service.OrderService, d amqp.Delivery) {
	ev, err := mq.DecodeOrderPlaced(d.Body)
	if err != nil {
		zap.L().Warn("invalid message", zap.Error(err))
		// 消息格式错误，拒绝并丢弃
		_ = d.Nack(false, false)
		return
	}

	o, err := orders.Get(ctx, ev.OrderID)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		// 订单已被后台删除
		zap.L().Info("order gone, dropping event", zap.Int64("order_id", ev.OrderID))
		_ = d.Ack(false)
		return
	default:
		zap.L().Error("load order failed", zap.Int64("order_id", ev.OrderID), zap.Error(err))
		service.GetMonitor().RecordDBError()
		_ = d.Nack(false, true)
		return
	}

	zap.L().Info("order confirmation",
		zap.Int64("order_id", o.ID),
		zap.Int64("user_id", o.UserID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)),
		zap.String("status", string(o.Status)),
	)
	service.GetMonitor().RecordOrderEvent()

	if err := d.Ack(false); err != nil {
		zap.L().Warn("failed to ack message", zap.Error(err))
	}
}
