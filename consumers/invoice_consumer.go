package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"storefront-service/config"
	"storefront-service/middlewares"
	"storefront-service/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartInvoiceConsumer consumes invoice jobs and the dead letter queue
// until ctx ends or the channel closes.
func StartInvoiceConsumer(ctx context.Context, ch *amqp.Channel, cfg *config.Config, handler JobHandler) error {
	msgs, err := ch.Consume(
		cfg.InvoiceQueue,
		"storefront-invoices", // consumer tag
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register invoice consumer: %w", err)
	}

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"storefront-invoices-dlq", // consumer tag
		false,                     // auto-ack
		false,                     // exclusive
		false,                     // no-local
		false,                     // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register dead letter consumer: %w", err)
	}

	go consume(ctx, msgs, func(msg amqp.Delivery) { processInvoiceMessage(ctx, msg, handler) })
	go consume(ctx, dlqMsgs, processDeadLetterMessage)
	return nil
}

func consume(ctx context.Context, msgs <-chan amqp.Delivery, process func(amqp.Delivery)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			process(msg)
		}
	}
}

// processInvoiceMessage acks handled jobs. Undecodable messages go straight
// to the dead letter queue; a failed job is retried once, then dead-lettered.
func processInvoiceMessage(ctx context.Context, msg amqp.Delivery, handler JobHandler) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic in message processing", "panic", fmt.Sprint(r))
			msg.Nack(false, false)
		}
	}()

	var job models.InvoiceJob
	if err := json.Unmarshal(msg.Body, &job); err != nil || job.OrderID <= 0 {
		slog.Warn("Invalid invoice job", "body", string(msg.Body), "err", err)
		msg.Nack(false, false)
		middlewares.RecordOperation("invoice_job", false)
		return
	}

	if err := handler.Handle(ctx, job); err != nil {
		requeue := !msg.Redelivered
		slog.Error("Invoice job failed", "order_id", job.OrderID, "requeue", requeue, "err", err)
		msg.Nack(false, requeue)
		middlewares.RecordOperation("invoice_job", false)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Warn("Failed to ack invoice job", "order_id", job.OrderID, "err", err)
	}
	middlewares.RecordOperation("invoice_job", true)
}

func processDeadLetterMessage(msg amqp.Delivery) {
	slog.Warn("Received dead letter", "message_id", msg.MessageId, "body", string(msg.Body), "x-death", msg.Headers["x-death"])
	msg.Ack(false)
}
