package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/book"
	"github.com/saiputravu/matchbook/internal/domain"
)

func newTestEngine() *Engine {
	b := book.New("BTC-USD", assetrules.Crypto{LotSize: 1})
	return New(b)
}

func limit(id domain.OrderID, side domain.Side, price domain.Price, qty domain.Qty) domain.Order {
	return domain.Order{ID: id, Symbol: "BTC-USD", Side: side, Price: price, Quantity: qty, Kind: domain.OrderKind{Kind: domain.Limit}}
}

func TestSubmit_CrossingOrderTradesAtMakerPrice(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Sell, 100, 10))

	result := e.Submit(limit(2, domain.Buy, 105, 4))

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, domain.Price(100), trade.Price, "execution price is always the resting maker's price")
	assert.Equal(t, domain.Qty(4), trade.Quantity)
	assert.Equal(t, domain.Filled, result.Outcome.Status, "maker partially filled, but here the taker was fully filled")
}

func TestSubmit_PriceTimePriority(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Sell, 100, 5))
	e.Submit(limit(2, domain.Sell, 100, 5))

	result := e.Submit(limit(3, domain.Buy, 100, 5))

	require.Len(t, result.Trades, 1)
	assert.Equal(t, domain.OrderID(1), result.Trades[0].MakerID, "the earlier resting order at the same price fills first")
}

func TestSubmit_IOC_DropsUnfilledResidual(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Sell, 100, 3))

	order := limit(2, domain.Buy, 100, 10)
	order.Kind = domain.OrderKind{Kind: domain.IOC}
	result := e.Submit(order)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, domain.Qty(3), result.Trades[0].Quantity)
	assert.Equal(t, domain.Cancelled, result.Outcome.Status)
	assert.Equal(t, domain.UnfilledResidual, result.Outcome.Reason)
	assert.Equal(t, domain.Qty(7), result.Outcome.Residual)

	_, ok := e.Book().BestAsk()
	assert.False(t, ok, "the depleted maker level should be gone")
	_, ok = e.Book().BestBid()
	assert.False(t, ok, "an IOC's unfilled residual never rests")
}

func TestSubmit_FOK_RejectsWhenUnfillable(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Sell, 100, 3))

	order := limit(2, domain.Buy, 100, 10)
	order.Kind = domain.OrderKind{Kind: domain.FOK}
	result := e.Submit(order)

	assert.Empty(t, result.Trades)
	assert.Equal(t, domain.Rejected, result.Outcome.Status)
	assert.Equal(t, domain.FOKUnfillable, result.Outcome.Reason)

	ask, ok := e.Book().BestAsk()
	require.True(t, ok)
	assert.Equal(t, domain.Price(100), ask, "a rejected FOK must leave the book untouched")
}

func TestSubmit_FOK_FillsCompletelyWhenLiquidityExists(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Sell, 100, 6))
	e.Submit(limit(2, domain.Sell, 101, 6))

	order := limit(3, domain.Buy, 101, 10)
	order.Kind = domain.OrderKind{Kind: domain.FOK}
	result := e.Submit(order)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, domain.Filled, result.Outcome.Status)
}

func TestSubmit_Iceberg_RefillDeferredUntilAfterSweep(t *testing.T) {
	e := newTestEngine()
	iceberg := limit(1, domain.Sell, 100, 7)
	iceberg.Kind = domain.OrderKind{Kind: domain.Iceberg, Display: 3}
	e.Submit(iceberg)

	result := e.Submit(limit(2, domain.Buy, 100, 4))

	require.Len(t, result.Trades, 1, "the taker can only consume the displayed slice, not the hidden reserve, within one sweep")
	assert.Equal(t, domain.Qty(3), result.Trades[0].Quantity)
	assert.Equal(t, domain.PartiallyFilledRested, result.Outcome.Status, "the taker's last unit rests instead of matching its own trigger refill")

	snap := e.Book().Snapshot(5)
	require.Len(t, snap.Asks, 1, "the iceberg's refill slice should now be resting on the ask side")
	assert.Equal(t, domain.Price(100), snap.Asks[0].Price)
	assert.Equal(t, domain.Qty(3), snap.Asks[0].Quantity, "the refill displays its configured slice size again")
	require.Len(t, snap.Bids, 1, "the taker's unmatched unit rests on the bid side")
	assert.Equal(t, domain.Qty(1), snap.Bids[0].Quantity)
}

func TestSubmit_StopCascade_TriggersOnLastTradePrice(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Buy, 95, 10))

	stop := domain.Order{
		ID: 2, Symbol: "BTC-USD", Side: domain.Sell,
		Quantity: 3, Kind: domain.OrderKind{Kind: domain.Stop, Trigger: 95, Underlying: domain.Market},
	}
	stopResult := e.Submit(stop)
	assert.Equal(t, domain.Rested, stopResult.Outcome.Status)
	assert.Len(t, e.Book().Stops(), 1)

	result := e.Submit(limit(3, domain.Sell, 90, 5))

	require.Len(t, result.Trades, 2, "the triggering trade plus the cascaded stop's trade")
	assert.Equal(t, domain.OrderID(3), result.Trades[0].TakerID)
	assert.Equal(t, domain.Qty(5), result.Trades[0].Quantity)
	assert.Equal(t, domain.OrderID(2), result.Trades[1].TakerID, "the cascaded order keeps the original stop's id")
	assert.Equal(t, domain.Qty(3), result.Trades[1].Quantity)
	assert.Empty(t, e.Book().Stops(), "the triggered stop is removed from the stop table")

	bid, ok := e.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, domain.Price(95), bid)
	snap := e.Book().Snapshot(1)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, domain.Qty(2), snap.Bids[0].Quantity, "10 - 5 - 3 remaining on the original maker")
}

func TestSubmit_StopWithoutValidUnderlying_Rejected(t *testing.T) {
	e := newTestEngine()
	stop := domain.Order{ID: 1, Symbol: "BTC-USD", Side: domain.Buy, Quantity: 1,
		Kind: domain.OrderKind{Kind: domain.Stop, Trigger: 100, Underlying: domain.FOK}}

	result := e.Submit(stop)
	assert.Equal(t, domain.Rejected, result.Outcome.Status)
	assert.Equal(t, domain.StopWithoutTrigger, result.Outcome.Reason)
}

func TestCancel_IsIdempotent(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit(1, domain.Buy, 100, 10))

	assert.Equal(t, domain.Cancelled, e.Cancel(1).Status)
	outcome := e.Cancel(1)
	assert.Equal(t, domain.Rejected, outcome.Status)
	assert.Equal(t, domain.NotFound, outcome.Reason)
}

func TestSubmit_MarketClosed_Rejected(t *testing.T) {
	b := book.New("AAPL", assetrules.Equities{TickSize: 1, LotSize: 1, Open: 9 * 60, Close: 16 * 60})
	closedClock := func() time.Time { return time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC) }
	e := NewWithClock(b, closedClock)

	result := e.Submit(limit(1, domain.Buy, 100, 10))
	assert.Equal(t, domain.Rejected, result.Outcome.Status)
	assert.Equal(t, domain.MarketClosed, result.Outcome.Reason)
}

func TestSubmit_IcebergDisplayExceedingQuantity_TreatedAsPlainLimit(t *testing.T) {
	e := newTestEngine()
	order := limit(1, domain.Sell, 100, 5)
	order.Kind = domain.OrderKind{Kind: domain.Iceberg, Display: 999}

	result := e.Submit(order)
	assert.Equal(t, domain.Rested, result.Outcome.Status)

	snap := e.Book().Snapshot(1)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, domain.Qty(5), snap.Asks[0].Quantity, "a non-genuine iceberg display reveals the whole order")
}
