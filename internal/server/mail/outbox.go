package mail

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"golang.org/x/sync/errgroup"
)

const sendTimeout = 30 * time.Second

// Outbox is a bounded in-memory queue of messages drained by worker
// goroutines. Enqueue never blocks the caller.
type Outbox struct {
	mailer  Mailer
	logger  logging.Logger
	workers int

	mu     sync.RWMutex
	closed bool
	queue  chan Message
}

func NewOutbox(mailer Mailer, workers, size int, l logging.Logger) *Outbox {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Outbox{
		mailer:  mailer,
		logger:  l.With("module", "mail_outbox"),
		workers: workers,
		queue:   make(chan Message, size),
	}
}

// Enqueue queues msg for delivery. It fails with common.ErrOutboxFull when
// the buffer is full and common.ErrOutboxClosed after shutdown.
func (o *Outbox) Enqueue(msg Message) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return common.ErrOutboxClosed
	}
	select {
	case o.queue <- msg:
		return nil
	default:
		return common.ErrOutboxFull
	}
}

// Run delivers queued messages until ctx is done, then stops accepting new
// ones and drains what is already queued before returning.
func (o *Outbox) Run(ctx context.Context) error {
	g := new(errgroup.Group)
	for i := 0; i < o.workers; i++ {
		worker := i
		g.Go(func() error {
			o.work(ctx, worker)
			return nil
		})
	}

	<-ctx.Done()
	o.mu.Lock()
	o.closed = true
	close(o.queue)
	o.mu.Unlock()

	return g.Wait()
}

func (o *Outbox) work(ctx context.Context, worker int) {
	// Delivery outlives the shutdown signal so queued mail is drained.
	base := context.WithoutCancel(ctx)

	for msg := range o.queue {
		sendCtx, cancel := context.WithTimeout(base, sendTimeout)
		err := o.mailer.Send(sendCtx, msg)
		cancel()

		if err != nil {
			o.logger.Error(ctx, "mail delivery failed", "worker", worker, "to", msg.To, "subject", msg.Subject, "error", err)
			continue
		}
		o.logger.Info(ctx, "mail delivered", "worker", worker, "to", msg.To, "subject", msg.Subject)
	}
}
