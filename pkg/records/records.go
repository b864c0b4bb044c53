package records

import (
	"context"
	"time"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/pkg/errors"
)

// Records gives typed access to the collections kept in a document store.
type Records struct {
	store pkg.DocumentStore
}

func New(store pkg.DocumentStore) *Records {
	return &Records{store: store}
}

func (r *Records) Member(ctx context.Context, address string) (pkg.Member, error) {
	var m pkg.Member
	err := r.store.Collection(pkg.CollectionMembers).FindByID(ctx, address, &m)
	return m, err
}

func (r *Records) InsertMember(ctx context.Context, m pkg.Member) error {
	return r.store.Collection(pkg.CollectionMembers).Insert(ctx, m.Address, m)
}

func (r *Records) UpdateMember(ctx context.Context, address string, fields map[string]interface{}) error {
	return r.store.Collection(pkg.CollectionMembers).UpdateByID(ctx, address, fields)
}

func (r *Records) CountReferrals(ctx context.Context, address string) (int64, error) {
	return r.store.Collection(pkg.CollectionMembers).Count(ctx, "referrer_address", address)
}

func (r *Records) InsertCommission(ctx context.Context, c pkg.Commission) error {
	return r.store.Collection(pkg.CollectionCommissions).Insert(ctx, c.ID, c)
}

func (r *Records) Commission(ctx context.Context, id string) (pkg.Commission, error) {
	var c pkg.Commission
	err := r.store.Collection(pkg.CollectionCommissions).FindByID(ctx, id, &c)
	return c, err
}

func (r *Records) CommissionsByPayment(ctx context.Context, paymentID string) ([]pkg.Commission, error) {
	var cs []pkg.Commission
	err := r.store.Collection(pkg.CollectionCommissions).FindByField(ctx, "payment_id", paymentID, &cs)
	return cs, err
}

func (r *Records) CommissionsByStatus(ctx context.Context, status pkg.CommissionStatus) ([]pkg.Commission, error) {
	var cs []pkg.Commission
	err := r.store.Collection(pkg.CollectionCommissions).FindByField(ctx, "status", status, &cs)
	return cs, err
}

// UpdateCommissionStatus moves a commission forward. Extra fields such as the
// transaction hash are written alongside the status.
func (r *Records) UpdateCommissionStatus(ctx context.Context, id string, next pkg.CommissionStatus, extra map[string]interface{}) error {
	current, err := r.Commission(ctx, id)
	if err != nil {
		return err
	}

	if !current.Status.CanTransition(next) {
		return errors.Wrapf(pkg.ErrInvalidTransition, "%s: %s -> %s", id, current.Status, next)
	}

	return r.writeCommissionStatus(ctx, id, next, extra)
}

// ReleaseCommission completes a commission held in escrow. It is the only way
// out of the escrow status.
func (r *Records) ReleaseCommission(ctx context.Context, id string, extra map[string]interface{}) error {
	current, err := r.Commission(ctx, id)
	if err != nil {
		return err
	}

	if current.Status != pkg.CommissionEscrow {
		return errors.Wrapf(pkg.ErrInvalidTransition, "%s: %s -> %s", id, current.Status, pkg.CommissionCompleted)
	}

	return r.writeCommissionStatus(ctx, id, pkg.CommissionCompleted, extra)
}

func (r *Records) writeCommissionStatus(ctx context.Context, id string, status pkg.CommissionStatus, extra map[string]interface{}) error {
	fields := map[string]interface{}{"status": status}
	for k, v := range extra {
		fields[k] = v
	}

	return r.store.Collection(pkg.CollectionCommissions).UpdateByID(ctx, id, fields)
}

func (r *Records) InsertEscrow(ctx context.Context, e pkg.EscrowRecord) error {
	return r.store.Collection(pkg.CollectionEscrows).Insert(ctx, e.ID, e)
}

func (r *Records) Escrow(ctx context.Context, id string) (pkg.EscrowRecord, error) {
	var e pkg.EscrowRecord
	err := r.store.Collection(pkg.CollectionEscrows).FindByID(ctx, id, &e)
	return e, err
}

func (r *Records) EscrowsByStatus(ctx context.Context, status pkg.EscrowStatus) ([]pkg.EscrowRecord, error) {
	var es []pkg.EscrowRecord
	err := r.store.Collection(pkg.CollectionEscrows).FindByField(ctx, "status", status, &es)
	return es, err
}

func (r *Records) MarkEscrowReleased(ctx context.Context, id string, at time.Time) error {
	return r.store.Collection(pkg.CollectionEscrows).UpdateByID(ctx, id, map[string]interface{}{
		"status":      pkg.EscrowReleased,
		"released_at": at,
	})
}

// RecordReleaseAttempts replaces the failed release attempts kept on an escrow.
func (r *Records) RecordReleaseAttempts(ctx context.Context, id string, attempts []pkg.ReleaseAttempt) error {
	return r.store.Collection(pkg.CollectionEscrows).UpdateByID(ctx, id, map[string]interface{}{
		"release_attempts": attempts,
	})
}

func (r *Records) Payout(ctx context.Context, paymentID string) (pkg.PayoutResult, error) {
	var p pkg.PayoutResult
	err := r.store.Collection(pkg.CollectionPayouts).FindByID(ctx, paymentID, &p)
	return p, err
}

func (r *Records) PayoutsByStatus(ctx context.Context, status pkg.PayoutStatus) ([]pkg.PayoutResult, error) {
	var ps []pkg.PayoutResult
	err := r.store.Collection(pkg.CollectionPayouts).FindByField(ctx, "status", status, &ps)
	return ps, err
}

// SavePayout stores the latest result for a payment, replacing any earlier run.
func (r *Records) SavePayout(ctx context.Context, p pkg.PayoutResult) error {
	payouts := r.store.Collection(pkg.CollectionPayouts)

	err := payouts.UpdateByID(ctx, p.PaymentID, map[string]interface{}{
		"status":        p.Status,
		"commissions":   p.Commissions,
		"profit_payout": p.Profit,
		"escrow_ids":    p.EscrowIDs,
		"processed_at":  p.ProcessedAt,
	})
	if errors.Is(err, pkg.ErrNotFound) {
		return payouts.Insert(ctx, p.PaymentID, p)
	}

	return err
}

func (r *Records) TierSettings(ctx context.Context) (pkg.TierSettings, error) {
	var s pkg.TierSettings
	err := r.store.Collection(pkg.CollectionSettings).FindByID(ctx, pkg.SettingsTiers, &s)
	return s, err
}

func (r *Records) SaveTierSettings(ctx context.Context, s pkg.TierSettings) error {
	settings := r.store.Collection(pkg.CollectionSettings)

	err := settings.UpdateByID(ctx, pkg.SettingsTiers, map[string]interface{}{"tiers": s.Tiers})
	if errors.Is(err, pkg.ErrNotFound) {
		return settings.Insert(ctx, pkg.SettingsTiers, s)
	}

	return err
}
