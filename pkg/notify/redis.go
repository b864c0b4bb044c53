package notify

import (
	"context"
	"time"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/go-redis/redis/v8"
	"github.com/mailru/easyjson"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const publishTimeout = time.Second * 3

// Redis forwards notifications to the mailer over pub/sub. Delivery is best
// effort: errors are logged and dropped.
type Redis struct {
	rd                 *redis.Client
	commissionEarnedCh string
	payoutCompletedCh  string
	logger             *logrus.Logger
}

var _ pkg.Notifier = (*Redis)(nil)

func NewRedis(logger *logrus.Logger, rd *redis.Client, commissionEarnedCh, payoutCompletedCh string) *Redis {
	return &Redis{
		rd:                 rd,
		commissionEarnedCh: commissionEarnedCh,
		payoutCompletedCh:  payoutCompletedCh,
		logger:             logger,
	}
}

func (r *Redis) CommissionEarned(ctx context.Context, recipient string, amount decimal.Decimal, sourceUsername, sourceTier string) {
	r.publish(ctx, r.commissionEarnedCh, pkg.CommissionEarnedEvent{
		Recipient:      recipient,
		Amount:         amount,
		SourceUsername: sourceUsername,
		SourceTier:     sourceTier,
	})
}

func (r *Redis) PayoutCompleted(ctx context.Context, recipient string, amount decimal.Decimal, txHash string) {
	r.publish(ctx, r.payoutCompletedCh, pkg.PayoutCompletedEvent{
		Recipient: recipient,
		Amount:    amount,
		TxHash:    txHash,
	})
}

func (r *Redis) publish(ctx context.Context, channel string, event easyjson.Marshaler) {
	payload, err := easyjson.Marshal(event)
	if err != nil {
		r.logger.WithField("channel", channel).WithError(err).Error("failed to marshal notification")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err = r.rd.Publish(ctx, channel, payload).Err(); err != nil {
		r.logger.WithField("channel", channel).WithError(err).Warn("failed to publish notification")
	}
}
