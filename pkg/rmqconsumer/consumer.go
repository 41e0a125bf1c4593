package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"filevault-api/config"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

var bindingKeys = []string{"file.*", "user.*"}

type (
	Consumer struct {
		cfg        config.MQ
		log        *zap.Logger
		conn       *amqp091.Connection
		chConsume  *amqp091.Channel
		chDelivery <-chan amqp091.Delivery
	}
	// envelope is the subset of the published event the audit log needs.
	envelope struct {
		ID     string `json:"event_id"`
		Action string `json:"event_action"`
		UserID string `json:"user_id"`
	}
)

func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection) *Consumer {
	return &Consumer{
		cfg:  cfg,
		log:  logger,
		conn: conn,
	}
}

// Connect dials dsn unless a shared connection was passed to New.
func (c *Consumer) Connect(dsn string) error {
	var err error
	if c.conn == nil || c.conn.IsClosed() {
		c.conn, err = amqp091.Dial(dsn)
		if err != nil {
			c.conn = nil
			return fmt.Errorf("amqp dial: %w", err)
		}
	}
	c.chConsume, err = c.conn.Channel()
	if err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range bindingKeys {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	var err error
	c.chDelivery, err = c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				c.log.Error("mq read message error", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		case <-ctx.Done():
			if c.chConsume != nil {
				_ = c.chConsume.Close()
			}
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	var e envelope
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if e.Action == "" {
		e.Action = msg.RoutingKey
	}

	c.log.Info("audit event",
		zap.String("action", e.Action),
		zap.String("event_id", e.ID),
		zap.String("user_id", e.UserID),
		zap.ByteString("body", msg.Body),
	)

	return nil
}
