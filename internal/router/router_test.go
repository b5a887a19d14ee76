package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/domain"
)

func newTestRouter(t *testing.T) (*Router, *tomb.Tomb) {
	var tb tomb.Tomb
	r := New(&tb)
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return r, &tb
}

func TestRouter_SubmitUnknownSymbol_Rejected(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	result := r.Submit(ctx, domain.Order{ID: 1, Symbol: "NOPE", Quantity: 1, Kind: domain.OrderKind{Kind: domain.Limit}})
	assert.Equal(t, domain.Rejected, result.Outcome.Status)
	assert.Equal(t, domain.UnknownSymbol, result.Outcome.Reason)
}

func TestRouter_RegisterTwice_Errors(t *testing.T) {
	r, _ := newTestRouter(t)
	require.NoError(t, r.Register("BTC-USD", assetrules.Crypto{LotSize: 1}))
	assert.Error(t, r.Register("BTC-USD", assetrules.Crypto{LotSize: 1}))
}

func TestRouter_SubmitCancelSnapshot_RoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	require.NoError(t, r.Register("BTC-USD", assetrules.Crypto{LotSize: 1}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	order := domain.Order{ID: 1, Symbol: "BTC-USD", Side: domain.Buy, Price: 100, Quantity: 10, Kind: domain.OrderKind{Kind: domain.Limit}}
	result := r.Submit(ctx, order)
	require.Equal(t, domain.Rested, result.Outcome.Status)

	snap, ok := r.Snapshot(ctx, "BTC-USD", 5)
	require.True(t, ok)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, domain.Qty(10), snap.Bids[0].Quantity)

	outcome := r.Cancel(ctx, "BTC-USD", 1)
	assert.Equal(t, domain.Cancelled, outcome.Status)
}
