package referral

import (
	"context"
	"time"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/coinsurf-com/affiliate/pkg/records"
	"github.com/coinsurf-com/affiliate/pkg/tiers"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAddress  = errors.New("invalid member address")
	ErrAlreadyMember   = errors.New("member already registered")
	ErrSelfReferral    = errors.New("member cannot refer itself")
	ErrUnknownReferrer = errors.New("referrer is not a member")
)

// AddressValidator checks payout addresses before they are stored.
type AddressValidator interface {
	IsValidAddress(address string) bool
}

// Registry manages membership and the immutable referrer link.
type Registry struct {
	records   *records.Records
	tiers     *tiers.Registry
	addresses AddressValidator
	logger    *logrus.Logger
	now       func() time.Time
}

func NewRegistry(logger *logrus.Logger, recs *records.Records, tierRegistry *tiers.Registry, addresses AddressValidator) *Registry {
	return &Registry{
		records:   recs,
		tiers:     tierRegistry,
		addresses: addresses,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *Registry) Register(ctx context.Context, address, username, tier, referrer string) (pkg.Member, error) {
	if !r.addresses.IsValidAddress(address) {
		return pkg.Member{}, errors.Wrap(ErrInvalidAddress, address)
	}

	if _, err := r.tiers.GetTier(tier); err != nil {
		return pkg.Member{}, err
	}

	_, err := r.records.Member(ctx, address)
	if err == nil {
		return pkg.Member{}, errors.Wrap(ErrAlreadyMember, address)
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return pkg.Member{}, errors.Wrap(err, "lookup member")
	}

	if referrer != "" {
		if referrer == address {
			return pkg.Member{}, ErrSelfReferral
		}

		_, err = r.records.Member(ctx, referrer)
		if errors.Is(err, pkg.ErrNotFound) {
			return pkg.Member{}, errors.Wrap(ErrUnknownReferrer, referrer)
		}
		if err != nil {
			return pkg.Member{}, errors.Wrap(err, "lookup referrer")
		}
	}

	m := pkg.Member{
		Address:         address,
		Username:        username,
		Tier:            tier,
		ReferrerAddress: referrer,
		CreatedAt:       r.now().UTC(),
	}

	if err = r.records.InsertMember(ctx, m); err != nil {
		return pkg.Member{}, errors.Wrap(err, "insert member")
	}

	log := r.logger.WithFields(logrus.Fields{
		"address":  address,
		"tier":     tier,
		"referrer": referrer,
	})

	if referrer != "" {
		count, err := r.records.CountReferrals(ctx, referrer)
		if err != nil {
			log.WithError(err).Warn("failed to count referrals")
		}
		log = log.WithField("referrer_referrals", count)
	}
	log.Info("registered member")

	return m, nil
}

// Upgrade changes the tier of a member. The referrer link is left untouched.
func (r *Registry) Upgrade(ctx context.Context, address, tier string) error {
	if _, err := r.tiers.GetTier(tier); err != nil {
		return err
	}

	return r.records.UpdateMember(ctx, address, map[string]interface{}{"tier": tier})
}

func (r *Registry) Suspend(ctx context.Context, address string, suspended bool) error {
	return r.records.UpdateMember(ctx, address, map[string]interface{}{"suspended": suspended})
}
