package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommissionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_commissions_created_total",
			Help: "Total number of commission records created",
		},
		[]string{"level"},
	)

	ChainWalkFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_chain_walk_faults_total",
			Help: "Referral chain walk faults by kind",
		},
		[]string{"kind"},
	)

	Transfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_transfers_total",
			Help: "On-chain transfer attempts by leg and outcome",
		},
		[]string{"leg", "status"},
	)

	TransferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "affiliate_transfer_duration_seconds",
			Help:    "Time from submission to confirmed receipt",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~2m
		},
		[]string{"leg"},
	)

	EscrowRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_escrow_records_total",
			Help: "Escrow records created by reason",
		},
		[]string{"reason"},
	)

	PayoutBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_payout_batches_total",
			Help: "Payout batches by overall status",
		},
		[]string{"status"},
	)

	PayoutQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affiliate_payout_queue_depth",
			Help: "Payout batches waiting for the hot wallet worker",
		},
	)

	HotWalletBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affiliate_hot_wallet_balance",
			Help: "Last observed stablecoin balance of the hot wallet",
		},
	)
)
