package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const localInvoiceTopic = "invoice_jobs"

var (
	ErrQueueFull   = errors.New("invoice queue is full")
	ErrQueueClosed = errors.New("invoice queue is not running")
)

// LocalQueue runs invoice jobs in process when no broker is configured.
// Jobs go through an in-memory watermill Pub/Sub; at most size jobs may be
// waiting or running, and Stop waits for all of them before returning.
type LocalQueue struct {
	pubSub  *gochannel.GoChannel
	router  *message.Router
	handler JobHandler
	size    int

	mu      sync.Mutex
	running bool
	closed  bool
	pending int
	drained sync.WaitGroup
}

func NewLocalQueue(size int, handler JobHandler) (*LocalQueue, error) {
	if size <= 0 {
		size = 1
	}
	logger := watermill.NewSlogLogger(slog.Default())

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice router: %w", err)
	}

	q := &LocalQueue{
		pubSub:  gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: int64(size)}, logger),
		router:  router,
		handler: handler,
		size:    size,
	}

	retry := middleware.Retry{
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      2,
		Logger:          logger,
	}
	// settle is outermost so every job is acked exactly once
	router.AddMiddleware(q.settle, retry.Middleware, middleware.Recoverer)
	router.AddNoPublisherHandler("invoice_worker", localInvoiceTopic, q.pubSub, q.handle)
	return q, nil
}

// Start runs the router and returns once it is subscribed.
func (q *LocalQueue) Start(ctx context.Context) error {
	go func() {
		if err := q.router.Run(ctx); err != nil {
			slog.Error("Invoice router stopped", "err", err)
		}
	}()

	select {
	case <-q.router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
	return nil
}

func (q *LocalQueue) handle(msg *message.Message) error {
	var job models.InvoiceJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return fmt.Errorf("malformed invoice job: %w", err)
	}
	return q.handler.Handle(msg.Context(), job)
}

// settle logs a job that still failed after retries and acks it, so the
// in-memory Pub/Sub never redelivers.
func (q *LocalQueue) settle(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		defer q.release()
		if _, err := h(msg); err != nil {
			slog.Error("Invoice job failed", "message_uuid", msg.UUID, "order_id", msg.Metadata.Get("order_id"), "err", err)
		}
		return nil, nil
	}
}

func (q *LocalQueue) release() {
	q.mu.Lock()
	q.pending--
	q.mu.Unlock()
	q.drained.Done()
}

// Dispatch publishes job without waiting for it to run.
func (q *LocalQueue) Dispatch(_ context.Context, job models.InvoiceJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		middlewares.RecordDispatch("local", false)
		return fmt.Errorf("failed to marshal invoice job: %w", err)
	}

	q.mu.Lock()
	switch {
	case q.closed || !q.running:
		q.mu.Unlock()
		middlewares.RecordDispatch("local", false)
		return ErrQueueClosed
	case q.pending >= q.size:
		q.mu.Unlock()
		middlewares.RecordDispatch("local", false)
		return ErrQueueFull
	}
	q.pending++
	q.drained.Add(1)
	q.mu.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("order_id", strconv.FormatInt(job.OrderID, 10))
	if err := q.pubSub.Publish(localInvoiceTopic, msg); err != nil {
		q.release()
		middlewares.RecordDispatch("local", false)
		return fmt.Errorf("failed to publish invoice job: %w", err)
	}
	middlewares.RecordDispatch("local", true)
	return nil
}

// Stop refuses new jobs, waits for the accepted ones to finish and closes
// the router.
func (q *LocalQueue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.drained.Wait()
	if err := q.router.Close(); err != nil {
		slog.Error("Failed to close invoice router", "err", err)
	}
	if err := q.pubSub.Close(); err != nil {
		slog.Error("Failed to close invoice pubsub", "err", err)
	}
}
