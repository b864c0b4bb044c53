package pkg_test

import (
	"testing"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/mailru/easyjson"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentConfirmedAmountForms(t *testing.T) {
	for _, body := range []string{
		`{"member_address":"0xabc","tier":"gold","amount":"500.25","payment_id":"p1"}`,
		`{"member_address":"0xabc","tier":"gold","amount":500.25,"payment_id":"p1","extra":{"a":[1,2]}}`,
	} {
		var event pkg.PaymentConfirmed
		require.NoError(t, easyjson.Unmarshal([]byte(body), &event))

		assert.Equal(t, "0xabc", event.MemberAddress)
		assert.Equal(t, "gold", event.Tier)
		assert.Equal(t, "p1", event.PaymentID)
		assert.True(t, event.Amount.Equal(decimal.RequireFromString("500.25")))
	}
}

func TestPayoutCompletedEventEncoding(t *testing.T) {
	data, err := easyjson.Marshal(pkg.PayoutCompletedEvent{
		Recipient: "0xabc",
		Amount:    decimal.RequireFromString("25"),
		TxHash:    "0xdef",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipient":"0xabc","amount":"25","tx_hash":"0xdef"}`, string(data))

	var decoded pkg.PayoutCompletedEvent
	require.NoError(t, easyjson.Unmarshal(data, &decoded))
	assert.Equal(t, "0xdef", decoded.TxHash)
}

func TestEscrowReleaseRejectsMalformed(t *testing.T) {
	var event pkg.EscrowRelease
	assert.Error(t, easyjson.Unmarshal([]byte(`{"escrow_id":`), &event))
}

func TestMemberSuspendedDecoding(t *testing.T) {
	var event pkg.MemberSuspended
	require.NoError(t, easyjson.Unmarshal([]byte(`{"address":"0xabc","suspended":true}`), &event))
	assert.Equal(t, "0xabc", event.Address)
	assert.True(t, event.Suspended)

	data, err := easyjson.Marshal(pkg.MemberSuspended{Address: "0xabc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"0xabc","suspended":false}`, string(data))
}
