package journal

import (
	"context"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func PaidKey(address string) string {
	return ":5:paid:" + address
}

func FailedKey(address string) string {
	return ":5:failed:" + address
}

// Redis keeps running per recipient totals and announces every transfer on
// the payout update channel.
type Redis struct {
	rd       *redis.Client
	updateCh string
}

func NewRedis(rd *redis.Client, updateCh string) *Redis {
	return &Redis{rd: rd, updateCh: updateCh}
}

func (d *Redis) Name() string {
	return "redis"
}

func (d *Redis) Record(ctx context.Context, entries []pkg.TransferEntry) error {
	var failed int
	for _, e := range entries {
		key := FailedKey(e.Recipient)
		if e.Success {
			key = PaidKey(e.Recipient)
		}

		_, err := d.rd.IncrByFloat(ctx, key, e.Amount.InexactFloat64()).Result()
		if err != nil {
			log.WithField("key", key).Error(errors.Wrap(err, "increment total"))
			failed++
			continue
		}

		if e.TxHash == "" {
			continue
		}

		_, err = d.rd.Publish(ctx, d.updateCh, e.TxHash).Result()
		if err != nil {
			log.Error(errors.Wrap(err, "publish to channel"))
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d totals not updated", failed, len(entries))
	}

	return nil
}
