package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/domain"
)

func testRules() assetrules.Rules {
	return assetrules.Equities{TickSize: 1, LotSize: 1}
}

func limitOrder(id domain.OrderID, side domain.Side, price domain.Price, qty domain.Qty) *domain.Order {
	return &domain.Order{
		ID: id, Symbol: "AAPL", Side: side, Price: price,
		Quantity: qty, Remaining: qty, Kind: domain.OrderKind{Kind: domain.Limit},
	}
}

func TestRest_BestBidAskOrdering(t *testing.T) {
	b := New("AAPL", testRules())

	b.Rest(limitOrder(1, domain.Buy, 99, 100))
	b.Rest(limitOrder(2, domain.Buy, 100, 50))
	b.Rest(limitOrder(3, domain.Sell, 101, 100))
	b.Rest(limitOrder(4, domain.Sell, 102, 50))

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, domain.Price(100), bid, "best bid is the highest resting price")

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, domain.Price(101), ask, "best ask is the lowest resting price")
}

func TestRest_SamePriceFIFO(t *testing.T) {
	b := New("AAPL", testRules())
	b.Rest(limitOrder(1, domain.Buy, 100, 10))
	b.Rest(limitOrder(2, domain.Buy, 100, 20))

	level := b.BestLevel(domain.Buy)
	require.NotNil(t, level)
	assert.Equal(t, domain.OrderID(1), level.PeekHead().ID, "first resting order at a level stays at the head")
}

func TestCancel_RemovesFromLevelAndDropsEmptyLevel(t *testing.T) {
	b := New("AAPL", testRules())
	b.Rest(limitOrder(1, domain.Buy, 100, 10))

	assert.True(t, b.Cancel(1))
	_, ok := b.BestBid()
	assert.False(t, ok, "the level should be removed once its last order is cancelled")

	assert.False(t, b.Cancel(1), "cancelling an already-cancelled id is idempotent and reports false")
}

func TestCancel_StopOrder(t *testing.T) {
	b := New("AAPL", testRules())
	b.PutStop(domain.Order{ID: 9, Symbol: "AAPL", Side: domain.Sell, Kind: domain.OrderKind{Kind: domain.Stop, Trigger: 90, Underlying: domain.Market}})

	assert.True(t, b.Cancel(9))
	assert.Empty(t, b.Stops())
}

func TestStops_SortedAscendingByID(t *testing.T) {
	b := New("AAPL", testRules())
	b.PutStop(domain.Order{ID: 30})
	b.PutStop(domain.Order{ID: 10})
	b.PutStop(domain.Order{ID: 20})

	stops := b.Stops()
	require.Len(t, stops, 3)
	assert.Equal(t, []domain.OrderID{10, 20, 30}, []domain.OrderID{stops[0].ID, stops[1].ID, stops[2].ID})
}

func TestCrossed(t *testing.T) {
	b := New("AAPL", testRules())
	assert.False(t, b.Crossed(), "an empty book is never crossed")

	b.Rest(limitOrder(1, domain.Buy, 100, 10))
	b.Rest(limitOrder(2, domain.Sell, 101, 10))
	assert.False(t, b.Crossed())

	b.Rest(limitOrder(3, domain.Buy, 102, 10))
	assert.True(t, b.Crossed(), "a resting bid at or above the best ask is a crossed book")
}

func TestSnapshot_AggregatesRemainingPerPrice(t *testing.T) {
	b := New("AAPL", testRules())
	b.Rest(limitOrder(1, domain.Buy, 100, 10))
	b.Rest(limitOrder(2, domain.Buy, 100, 5))
	b.Rest(limitOrder(3, domain.Buy, 99, 7))

	snap := b.Snapshot(1)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, domain.Price(100), snap.Bids[0].Price)
	assert.Equal(t, domain.Qty(15), snap.Bids[0].Quantity)
}

func TestLastTradePrice(t *testing.T) {
	b := New("AAPL", testRules())
	_, ok := b.LastTradePrice()
	assert.False(t, ok)

	b.SetLastTradePrice(105)
	price, ok := b.LastTradePrice()
	require.True(t, ok)
	assert.Equal(t, domain.Price(105), price)
}

func TestEquitiesMarketHours(t *testing.T) {
	rules := assetrules.Equities{TickSize: 1, LotSize: 1, Open: 9 * 60, Close: 16 * 60}
	open := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	closed := time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)
	assert.True(t, rules.MarketOpen(open))
	assert.False(t, rules.MarketOpen(closed))
}
