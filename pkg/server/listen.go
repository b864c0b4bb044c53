package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"
	"unsafe"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/coinsurf-com/affiliate/pkg/commission"
	"github.com/coinsurf-com/affiliate/pkg/journal"
	"github.com/coinsurf-com/affiliate/pkg/notify"
	"github.com/coinsurf-com/affiliate/pkg/payout"
	"github.com/coinsurf-com/affiliate/pkg/records"
	"github.com/coinsurf-com/affiliate/pkg/referral"
	"github.com/coinsurf-com/affiliate/pkg/storage"
	"github.com/coinsurf-com/affiliate/pkg/tiers"
	"github.com/coinsurf-com/affiliate/pkg/wallet"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/mailru/easyjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Debug          bool `long:"debug" env:"DEBUG"`
	PrometheusPort int  `long:"prometheus" env:"PROMETHEUS_PORT" default:"3000" description:""`

	Postgres   string `long:"postgres" env:"POSTGRES" default:""`
	ClickHouse string `long:"clickhouse" env:"CLICKHOUSE" default:""`
	Redis      string `long:"redis" env:"REDIS" default:""`

	RedisChannelPaymentConfirmed string `long:"redis-ch-payment-confirmed" env:"REDIS_CH_PAYMENT_CONFIRMED" default:"payment.confirmed"`
	RedisChannelMemberRegistered string `long:"redis-ch-member-registered" env:"REDIS_CH_MEMBER_REGISTERED" default:"member.registered"`
	RedisChannelMemberTier       string `long:"redis-ch-member-tier" env:"REDIS_CH_MEMBER_TIER" default:"member.tier"`
	RedisChannelMemberSuspended  string `long:"redis-ch-member-suspended" env:"REDIS_CH_MEMBER_SUSPENDED" default:"member.suspended"`
	RedisChannelTiersUpdate      string `long:"redis-ch-tiers-update" env:"REDIS_CH_TIERS_UPDATE" default:"tiers"`
	RedisChannelEscrowRelease    string `long:"redis-ch-escrow-release" env:"REDIS_CH_ESCROW_RELEASE" default:"escrow.release"`
	RedisChannelPayoutUpdate     string `long:"redis-ch-payout-update" env:"REDIS_CH_PAYOUT_UPDATE" default:"payout"`
	RedisChannelNotifyCommission string `long:"redis-ch-notify-commission" env:"REDIS_CH_NOTIFY_COMMISSION" default:"notify.commission"`
	RedisChannelNotifyPayout     string `long:"redis-ch-notify-payout" env:"REDIS_CH_NOTIFY_PAYOUT" default:"notify.payout"`

	RPC                 string        `long:"rpc" env:"RPC_URL" default:"" description:"EVM json-rpc endpoint"`
	ChainID             int64         `long:"chain-id" env:"CHAIN_ID" default:"0" description:"0 asks the rpc node"`
	Token               string        `long:"token" env:"TOKEN_CONTRACT" default:"" description:"stablecoin contract address"`
	TokenDecimals       int32         `long:"token-decimals" env:"TOKEN_DECIMALS" default:"18"`
	HotWalletKey        string        `long:"hot-wallet-key" env:"HOT_WALLET_KEY" default:"" description:"hex private key of the payout wallet"`
	ColdWallet          string        `long:"cold-wallet" env:"COLD_WALLET" default:"" description:"profit destination"`
	ReceiptTimeout      time.Duration `long:"receipt-timeout" env:"RECEIPT_TIMEOUT" default:"120s"`
	ReceiptPollInterval time.Duration `long:"receipt-poll-interval" env:"RECEIPT_POLL_INTERVAL" default:"2s"`

	CommissionGasMultiplier float64 `long:"commission-gas-multiplier" env:"COMMISSION_GAS_MULTIPLIER" default:"1.5"`
	ProfitGasMultiplier     float64 `long:"profit-gas-multiplier" env:"PROFIT_GAS_MULTIPLIER" default:"1.1"`
	DustThreshold           float64 `long:"dust-threshold" env:"DUST_THRESHOLD" default:"0.01" description:"profit at or below value is not transferred"`
	PayoutQueueSize         int     `long:"payout-queue-size" env:"PAYOUT_QUEUE_SIZE" default:"1000"`
}

func Listen(signals <-chan os.Signal, config *Config, logger *log.Logger) error {
	// every listener below waits for shutdown, a closed channel reaches all of them
	stop := make(chan os.Signal)
	go func() {
		<-signals
		close(stop)
	}()
	var closing <-chan os.Signal = stop

	ch := newClickHouse(config.ClickHouse)
	logger.Debugf("ClickHouse: connected to %s", config.ClickHouse)

	pg := newPostgres(config.Postgres)
	logger.Debugf("Postgres: connected to %s", config.Postgres)

	rd := newRedis(config.Redis)
	logger.Debugf("Redis: connected to %s", config.Redis)
	defer func() {
		ch.Close()
		pg.Close()
		rd.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	documents := storage.NewPostgres(pg)
	if err := documents.Migrate(ctx); err != nil {
		return err
	}

	transfers := journal.NewClickHouse(ch)
	if err := transfers.Migrate(ctx); err != nil {
		return err
	}

	recs := records.New(documents)

	seeded, err := tiers.Seed(ctx, recs)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("stored default tiers")
	}

	registry := tiers.NewRegistry()
	if err = registry.Reload(ctx, recs); err != nil {
		return err
	}
	logger.WithField("tiers", registry.Snapshot().Names()).Info("loaded tiers")
	tiers.Subscribe(logger, closing, rd, config.RedisChannelTiersUpdate, registry, recs)

	client, err := wallet.Dial(ctx, config.RPC)
	if err != nil {
		return err
	}
	defer client.Close()

	hotWallet, err := wallet.NewEthereum(logger, client, wallet.Config{
		PrivateKey:     config.HotWalletKey,
		Token:          config.Token,
		TokenDecimals:  config.TokenDecimals,
		ChainID:        config.ChainID,
		ReceiptTimeout: config.ReceiptTimeout,
		PollInterval:   config.ReceiptPollInterval,
	})
	if err != nil {
		return err
	}
	logger.WithField("hot_wallet", hotWallet.Address()).Info("wallet ready")

	if !hotWallet.IsValidAddress(config.ColdWallet) {
		return errors.New("invalid cold wallet address")
	}

	notifier := notify.NewRedis(logger, rd, config.RedisChannelNotifyCommission, config.RedisChannelNotifyPayout)

	payoutConfig := payout.DefaultConfig(config.ColdWallet)
	payoutConfig.CommissionGasMultiplier = decimal.NewFromFloat(config.CommissionGasMultiplier)
	payoutConfig.ProfitGasMultiplier = decimal.NewFromFloat(config.ProfitGasMultiplier)
	payoutConfig.DustThreshold = decimal.NewFromFloat(config.DustThreshold)
	payoutConfig.Precision = config.TokenDecimals

	engine := payout.NewEngine(logger, hotWallet, recs, notifier, payoutConfig,
		transfers,
		journal.NewRedis(rd, config.RedisChannelPayoutUpdate),
	)

	dispatcher := payout.NewDispatcher(logger, engine, config.PayoutQueueSize)
	go dispatcher.Run(ctx)

	batches, err := engine.Recover(ctx)
	if err != nil {
		return err
	}
	for _, batch := range batches {
		if err = dispatcher.Submit(batch); err != nil {
			logger.WithError(err).Error("failed to queue recovered batch")
		}
	}
	if len(batches) > 0 {
		logger.WithField("batches", len(batches)).Info("recovered unsettled payouts")
	}

	held, err := recs.EscrowsByStatus(ctx, pkg.EscrowPendingReview)
	if err != nil {
		return err
	}
	if len(held) > 0 {
		logger.WithField("escrows", len(held)).Warn("escrow records awaiting review")
	}

	calculator := commission.NewCalculator(logger, recs, registry, notifier)
	calculator.Precision = config.TokenDecimals
	accountant := pkg.NewDefault(logger, recs, calculator, dispatcher)
	members := referral.NewRegistry(logger, recs, registry, hotWallet)

	metricsServer := &http.Server{Addr: ":" + strconv.Itoa(config.PrometheusPort), Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()
	defer metricsServer.Close()

	paymentSub := rd.Subscribe(context.Background(), config.RedisChannelPaymentConfirmed)
	defer paymentSub.Unsubscribe(context.Background(), config.RedisChannelPaymentConfirmed)
	defer paymentSub.Close()

	go listenPayments(closing, paymentSub.Channel(), accountant, logger)

	memberChannels := []string{config.RedisChannelMemberRegistered, config.RedisChannelMemberTier, config.RedisChannelMemberSuspended}
	memberSub := rd.Subscribe(context.Background(), memberChannels...)
	defer memberSub.Unsubscribe(context.Background(), memberChannels...)
	defer memberSub.Close()

	go listenMembers(closing, memberSub.Channel(), config, members, logger)

	escrowSub := rd.Subscribe(context.Background(), config.RedisChannelEscrowRelease)
	defer escrowSub.Unsubscribe(context.Background(), config.RedisChannelEscrowRelease)
	defer escrowSub.Close()

	go listenEscrowReleases(closing, escrowSub.Channel(), engine, logger)

	<-closing

	// let the payout worker finish the batch in flight
	cancel()
	<-dispatcher.Done()

	return nil
}

func listenPayments(closing <-chan os.Signal, ch <-chan *redis.Message, accountant *pkg.Base, logger *log.Logger) error {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}

			var event pkg.PaymentConfirmed
			err := easyjson.Unmarshal(s2b(msg.Payload), &event)
			if err != nil {
				logger.WithError(err).WithField("payload", msg.Payload).Error("failed to unmarshal payload")
				continue
			}

			_, err = accountant.OnPaymentConfirmed(context.Background(), event.MemberAddress, event.Tier, event.Amount, event.PaymentID)
			if err != nil {
				logger.
					WithField("payment_id", event.PaymentID).
					WithField("member", event.MemberAddress).
					WithError(err).
					Error("failed to record payment")
			}
		case <-closing:
			return errors.New("close received")
		}
	}
}

func listenMembers(closing <-chan os.Signal, ch <-chan *redis.Message, config *Config, members *referral.Registry, logger *log.Logger) error {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}

			switch msg.Channel {
			case config.RedisChannelMemberTier:
				var event pkg.MemberTierChanged
				if err := easyjson.Unmarshal(s2b(msg.Payload), &event); err != nil {
					logger.WithError(err).WithField("payload", msg.Payload).Error("failed to unmarshal payload")
					continue
				}

				if err := members.Upgrade(context.Background(), event.Address, event.Tier); err != nil {
					logger.WithFields(map[string]interface{}{
						"address": event.Address,
						"tier":    event.Tier,
					}).WithError(err).Error("failed to change member tier")
				}
			case config.RedisChannelMemberSuspended:
				var event pkg.MemberSuspended
				if err := easyjson.Unmarshal(s2b(msg.Payload), &event); err != nil {
					logger.WithError(err).WithField("payload", msg.Payload).Error("failed to unmarshal payload")
					continue
				}

				if err := members.Suspend(context.Background(), event.Address, event.Suspended); err != nil {
					logger.WithFields(map[string]interface{}{
						"address":   event.Address,
						"suspended": event.Suspended,
					}).WithError(err).Error("failed to change member suspension")
				}
			default:
				var event pkg.MemberRegistered
				if err := easyjson.Unmarshal(s2b(msg.Payload), &event); err != nil {
					logger.WithError(err).WithField("payload", msg.Payload).Error("failed to unmarshal payload")
					continue
				}

				_, err := members.Register(context.Background(), event.Address, event.Username, event.Tier, event.ReferrerAddress)
				if err != nil {
					logger.WithFields(map[string]interface{}{
						"address":  event.Address,
						"tier":     event.Tier,
						"referrer": event.ReferrerAddress,
					}).WithError(err).Error("failed to register member")
				}
			}
		case <-closing:
			return errors.New("received kill")
		}
	}
}

func listenEscrowReleases(closing <-chan os.Signal, ch <-chan *redis.Message, engine *payout.Engine, logger *log.Logger) error {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}

			var event pkg.EscrowRelease
			if err := easyjson.Unmarshal(s2b(msg.Payload), &event); err != nil {
				logger.WithError(err).WithField("payload", msg.Payload).Error("failed to unmarshal payload")
				continue
			}

			record, err := engine.ReleaseEscrow(context.Background(), event.EscrowID)
			if err != nil {
				logger.WithField("escrow_id", event.EscrowID).WithError(err).Error("failed to release escrow")
				continue
			}

			logger.WithField("escrow_id", record.ID).WithField("status", record.Status).Info("escrow release processed")
		case <-closing:
			return errors.New("close received")
		}
	}
}

func newRedis(dsn string) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	options, err := redis.ParseURL(dsn)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(options)

	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		panic(err)
	}

	return rdb
}

func newClickHouse(dsn string) *sqlx.DB {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "clickhouse", dsn)
	if err != nil {
		panic(err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		panic(err)
	}

	return db
}

func newPostgres(dsn string) *sqlx.DB {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		panic(err)
	}

	err = db.Ping()
	if err != nil {
		panic(err)
	}

	return db
}

func s2b(s string) []byte {
	/* #nosec G103 */
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
