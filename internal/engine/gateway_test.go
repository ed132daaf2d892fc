package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_AddOrderAndSnapshotAgree(t *testing.T) {
	gw := NewGateway()

	_, err := gw.AddOrder(NewOrder(1, GoodTillCancel, Buy, 100, 10))
	require.NoError(t, err)

	bids, asks := gw.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 100, Quantity: 10}}, bids)
	assert.Empty(t, asks)
}

// Concurrent mutations and snapshots must never panic or corrupt the book;
// the gateway's readers-writer discipline is what makes this safe (§4.6).
func TestGateway_ConcurrentAddersAndSnapshotsDoNotRace(t *testing.T) {
	gw := NewGateway()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id OrderId) {
			defer wg.Done()
			side := Buy
			price := Price(100)
			if id%2 == 0 {
				side = Sell
				price = Price(101)
			}
			_, _ = gw.AddOrder(NewOrder(id, GoodTillCancel, side, price, 1))
		}(OrderId(i + 1))
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gw.Snapshot()
		}()
	}
	wg.Wait()

	bids, asks := gw.Snapshot()
	var totalBid, totalAsk Quantity
	for _, lvl := range bids {
		totalBid += lvl.Quantity
	}
	for _, lvl := range asks {
		totalAsk += lvl.Quantity
	}
	assert.Equal(t, Quantity(n/2), totalBid)
	assert.Equal(t, Quantity(n/2), totalAsk)
}

func TestGateway_CancelOrder(t *testing.T) {
	gw := NewGateway()
	_, err := gw.AddOrder(NewOrder(1, GoodTillCancel, Buy, 100, 10))
	require.NoError(t, err)

	gw.CancelOrder(1)

	bids, _ := gw.Snapshot()
	assert.Empty(t, bids)
}
