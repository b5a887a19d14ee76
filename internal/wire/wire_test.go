package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchbook/internal/domain"
)

func TestEncodeDecodeNewOrder_RoundTrip(t *testing.T) {
	o := domain.Order{
		ID: 42, Symbol: "BTC-USD", Side: domain.Sell, Price: 100, Quantity: 7,
		Kind: domain.OrderKind{Kind: domain.Iceberg, Display: 3, Trigger: 0, Underlying: domain.Limit},
	}

	buf, err := EncodeNewOrder(o)
	require.NoError(t, err)

	got, err := DecodeNewOrder(buf)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.Symbol, got.Symbol)
	assert.Equal(t, o.Side, got.Side)
	assert.Equal(t, o.Price, got.Price)
	assert.Equal(t, o.Quantity, got.Quantity)
	assert.Equal(t, o.Kind, got.Kind)
}

func TestDecodeNewOrder_TooShort(t *testing.T) {
	_, err := DecodeNewOrder([]byte{0, 1, 2})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestEncodeDecodeCancelOrder_RoundTrip(t *testing.T) {
	buf := EncodeCancelOrder(99)
	id, err := DecodeCancelOrder(buf)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderID(99), id)
}

func TestEncodeDecodeExecutionReport_RoundTrip(t *testing.T) {
	tr := domain.TradeReport{Seq: 5, MakerID: 1, TakerID: 2, Price: 100, Quantity: 3, TS: 123456}
	buf := EncodeExecutionReport(tr)
	got, err := DecodeExecutionReport(buf)
	require.NoError(t, err)
	assert.Equal(t, tr.Seq, got.Seq)
	assert.Equal(t, tr.MakerID, got.MakerID)
	assert.Equal(t, tr.TakerID, got.TakerID)
	assert.Equal(t, tr.Price, got.Price)
	assert.Equal(t, tr.Quantity, got.Quantity)
	assert.Equal(t, tr.TS, got.TS)
}
