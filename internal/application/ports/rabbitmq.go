package ports

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"filevault-api/internal/infrastructure/mq"
)

type RabbitMQ interface {
	Connect(ctx context.Context, dsn string) error
	Init() error
	PublisherWorker(ctx context.Context)
	GetConn() *amqp091.Connection
	EventPublisher
}

// EventPublisher never blocks the caller; a full buffer drops the event.
type EventPublisher interface {
	Emit(e mq.Event) bool
}
