package tiers

import (
	"context"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const reloadTimeout = time.Second * 5

// Subscribe reloads the registry from source every time a message arrives on
// updateCh, until closing fires.
func Subscribe(logger *logrus.Logger, closing <-chan os.Signal, rd *redis.Client, updateCh string, registry *Registry, source Source) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-closing
		cancel()
	}()

	go func() {
		sub := rd.Subscribe(ctx, updateCh)
		defer sub.Unsubscribe(context.Background(), updateCh)
		defer sub.Close()

		logger.Debug("waiting for tiers to be updated")
		for {
			select {
			case <-sub.Channel():
				reloadCtx, reloadCancel := context.WithTimeout(ctx, reloadTimeout)
				err := registry.Reload(reloadCtx, source)
				reloadCancel()
				if err != nil {
					logger.WithField("channel", updateCh).WithError(err).Error("failed to reload tiers")
					continue
				}

				logger.WithField("tiers", registry.Snapshot().Names()).Info("updated tiers")
			case <-ctx.Done():
				return
			}
		}
	}()
}
