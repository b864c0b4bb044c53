package pkg

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidTransition = errors.New("invalid commission status transition")
	ErrNegativeProfit    = errors.New("commissions exceed payment amount")
	ErrUnknownTier       = errors.New("unknown tier")
)

const (
	CollectionMembers     = "members"
	CollectionCommissions = "commissions"
	CollectionEscrows     = "escrows"
	CollectionPayouts     = "payouts"
	CollectionSettings    = "settings"

	SettingsTiers = "tiers"
)

// Collection is a set of JSON documents addressed by id.
type Collection interface {
	Insert(ctx context.Context, id string, doc interface{}) error
	// FindByID decodes the document into out or returns ErrNotFound.
	FindByID(ctx context.Context, id string, out interface{}) error
	// FindByField decodes every document whose top level field equals value
	// into out, which must point to a slice.
	FindByField(ctx context.Context, field string, value interface{}, out interface{}) error
	// UpdateByID merges fields into the top level of the document.
	UpdateByID(ctx context.Context, id string, fields map[string]interface{}) error
	Count(ctx context.Context, field string, value interface{}) (int64, error)
}

type DocumentStore interface {
	Name() string
	Collection(name string) Collection
}
