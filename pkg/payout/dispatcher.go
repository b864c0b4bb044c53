package payout

import (
	"context"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/coinsurf-com/affiliate/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrQueueFull = errors.New("payout queue is full")

type Processor interface {
	Process(ctx context.Context, batch pkg.PayoutBatch) (pkg.PayoutResult, error)
}

// Dispatcher is the single writer for one hot wallet: batches are settled
// one after another by a single goroutine, so transfers from the wallet are
// never interleaved.
type Dispatcher struct {
	processor Processor
	queue     chan pkg.PayoutBatch
	done      chan struct{}
	logger    *logrus.Logger
}

func NewDispatcher(logger *logrus.Logger, processor Processor, size int) *Dispatcher {
	return &Dispatcher{
		processor: processor,
		queue:     make(chan pkg.PayoutBatch, size),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Submit enqueues a batch without waiting for it to be settled.
func (d *Dispatcher) Submit(batch pkg.PayoutBatch) error {
	select {
	case d.queue <- batch:
		metrics.PayoutQueueDepth.Inc()
		return nil
	default:
		return errors.Wrap(ErrQueueFull, batch.PaymentID)
	}
}

// Run settles queued batches until ctx is cancelled. A batch already in
// progress is finished first since submitted transfers cannot be revoked.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case batch := <-d.queue:
			metrics.PayoutQueueDepth.Dec()

			_, err := d.processor.Process(context.WithoutCancel(ctx), batch)
			if err != nil {
				d.logger.WithField("payment_id", batch.PaymentID).WithError(err).Error("failed to process payout batch")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed when Run returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
