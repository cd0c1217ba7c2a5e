package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront-service/config"
	"storefront-service/middlewares"
	"storefront-service/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultPriority = 5
	highPriority    = 9
)

// publisher is the part of *amqp.Channel that Dispatch uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQ struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	Cfg       *config.Config
	publisher publisher

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &RabbitMQ{
		Conn:      conn,
		Channel:   ch,
		Cfg:       cfg,
		publisher: ch,
	}, nil
}

func (r *RabbitMQ) deadLetterExchange() string {
	return r.Cfg.DeadLetterQueue + "_exchange"
}

// SetupQueues declares the invoice exchange and queue and the dead letter
// queue that rejected jobs are routed to.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		r.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, r.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue: %w", err)
	}

	if err := r.Channel.ExchangeDeclare(
		r.Cfg.InvoiceExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare invoice exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.InvoiceQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.deadLetterExchange(),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return fmt.Errorf("failed to declare invoice queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.Cfg.InvoiceQueue, r.Cfg.InvoiceQueue, r.Cfg.InvoiceExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind invoice queue: %w", err)
	}

	// one unacked job per consumer; rendering is the slow part
	return r.Channel.Qos(1, 0, false)
}

// Publishing builds the persistent JSON message for job.
func Publishing(job models.InvoiceJob, priority uint8) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode invoice job: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    fmt.Sprintf("invoice-%d", job.OrderID),
		Body:         body,
		Priority:     priority,
	}, nil
}

// Dispatch publishes an invoice job. High value orders jump the queue.
func (r *RabbitMQ) Dispatch(ctx context.Context, job models.InvoiceJob) error {
	priority := uint8(defaultPriority)
	if job.HighValue {
		priority = highPriority
	}
	msg, err := Publishing(job, priority)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.publisher.PublishWithContext(ctx,
		r.Cfg.InvoiceExchange,
		r.Cfg.InvoiceQueue,
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		middlewares.RecordDispatch("rabbitmq", false)
		return fmt.Errorf("failed to publish invoice job %d: %w", job.OrderID, err)
	}
	middlewares.RecordDispatch("rabbitmq", true)
	return nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.Conn != nil {
		r.Conn.Close()
	}
}
