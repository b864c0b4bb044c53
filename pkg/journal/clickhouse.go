package journal

import (
	"context"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ClickHouse struct {
	ch *sqlx.DB
}

const chCreateTransfers = `CREATE TABLE IF NOT EXISTS payout_transfers (
								payment_id String,
								commission_id String,
								leg LowCardinality(String),
								recipient String,
								amount Decimal(38, 18),
								success UInt8,
								tx_hash String,
								gas_used UInt64,
								error String,
								timestamp DateTime,
								date Date
							) ENGINE = MergeTree() PARTITION BY toYYYYMM(date) ORDER BY (date, payment_id)`

//insert transfer attempts in ClickHouse
const chInsertTransfers = `INSERT INTO payout_transfers(payment_id, commission_id, leg, recipient, amount, success, tx_hash, gas_used, error, timestamp, date)
								  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func NewClickHouse(ch *sqlx.DB) *ClickHouse {
	return &ClickHouse{ch: ch}
}

func (d *ClickHouse) Name() string {
	return "clickhouse"
}

func (d *ClickHouse) Migrate(ctx context.Context) error {
	_, err := d.ch.ExecContext(ctx, chCreateTransfers)
	return errors.Wrap(err, "create payout_transfers")
}

func (d *ClickHouse) Record(ctx context.Context, entries []pkg.TransferEntry) error {
	tx, err := d.ch.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "BeginTx")
	}

	stmt, err := tx.Prepare(chInsertTransfers)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "Prepare")
	}
	defer stmt.Close()

	for _, e := range entries {
		var success uint8
		if e.Success {
			success = 1
		}

		if _, err := stmt.Exec(
			e.PaymentID,
			e.CommissionID,
			e.Leg,
			e.Recipient,
			e.Amount.String(),
			success,
			e.TxHash,
			e.GasUsed,
			e.Error,
			e.Timestamp,
			e.Timestamp,
		); err != nil {
			log.WithField("transfer", e).Error("stmt.Exec error " + err.Error())
			_ = tx.Rollback()
			return errors.Wrap(err, "Exec")
		}
	}

	return tx.Commit()
}
