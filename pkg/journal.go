package pkg

import "context"

// Journal keeps an append only trail of transfer attempts.
type Journal interface {
	Name() string
	Record(ctx context.Context, entries []TransferEntry) error
}
