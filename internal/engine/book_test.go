package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addOK(t *testing.T, book *Book, id OrderId, orderType OrderType, side Side, price Price, qty Quantity) []Trade {
	t.Helper()
	trades, err := book.AddOrder(NewOrder(id, orderType, side, price, qty))
	require.NoError(t, err)
	return trades
}

// Scenario 1: a resting order with no opposite-side liquidity sits on the
// book untouched.
func TestAddOrder_RestsWithNoOppositeLiquidity(t *testing.T) {
	book := NewBook()

	trades := addOK(t, book, 1, GoodTillCancel, Buy, 100, 10)
	assert.Empty(t, trades)

	bids, asks := book.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 100, Quantity: 10}}, bids)
	assert.Empty(t, asks)
}

// Scenario 2: a fully-crossing order matches completely and both sides are
// removed from the book.
func TestAddOrder_FullMatchRemovesBothOrders(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 10)

	trades := addOK(t, book, 2, GoodTillCancel, Buy, 100, 10)
	require.Len(t, trades, 1)
	assert.Equal(t, Trade{
		Bid: TradeInfo{OrderID: 2, Price: 100, Quantity: 10},
		Ask: TradeInfo{OrderID: 1, Price: 100, Quantity: 10},
	}, trades[0])

	bids, asks := book.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

// Scenario 3: a partial match leaves the unmatched remainder resting at its
// original price, still a GoodTillCancel order.
func TestAddOrder_PartialMatchRestsRemainder(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 10)

	trades := addOK(t, book, 2, GoodTillCancel, Buy, 100, 15)
	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(10), trades[0].Bid.Quantity)

	bids, asks := book.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 100, Quantity: 5}}, bids)
	assert.Empty(t, asks)
}

// Scenario 4: a FillAndKill order that partially matches has its remainder
// killed rather than rested.
func TestAddOrder_FillAndKillPartialMatchKillsRemainder(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 5)

	trades := addOK(t, book, 2, FillAndKill, Buy, 100, 15)
	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(5), trades[0].Bid.Quantity)

	bids, asks := book.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

// Scenario 5: a FillAndKill order that cannot match at all is rejected and
// leaves the book completely unchanged.
func TestAddOrder_FillAndKillUnfillableLeavesBookUnchanged(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 105, 5)

	_, err := book.AddOrder(NewOrder(2, FillAndKill, Buy, 100, 10))
	assert.ErrorIs(t, err, ErrUnfillable)

	bids, asks := book.Snapshot()
	assert.Empty(t, bids)
	assert.Equal(t, []LevelInfo{{Price: 105, Quantity: 5}}, asks)
}

// Scenario 6: price-time priority — two resting orders at the same price
// match in arrival order.
func TestMatch_PriceTimePriority(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 5)
	addOK(t, book, 2, GoodTillCancel, Sell, 100, 5)

	trades := addOK(t, book, 3, GoodTillCancel, Buy, 100, 7)
	require.Len(t, trades, 2)
	assert.Equal(t, OrderId(1), trades[0].Ask.OrderID)
	assert.Equal(t, Quantity(5), trades[0].Ask.Quantity)
	assert.Equal(t, OrderId(2), trades[1].Ask.OrderID)
	assert.Equal(t, Quantity(2), trades[1].Ask.Quantity)

	_, asks := book.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 100, Quantity: 3}}, asks)
}

func TestAddOrder_RejectsNonPositivePrice(t *testing.T) {
	book := NewBook()
	_, err := book.AddOrder(NewOrder(1, GoodTillCancel, Buy, 0, 10))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestAddOrder_RejectsZeroQuantity(t *testing.T) {
	book := NewBook()
	_, err := book.AddOrder(NewOrder(1, GoodTillCancel, Buy, 100, 0))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestAddOrder_RejectsDuplicateID(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Buy, 100, 10)
	_, err := book.AddOrder(NewOrder(1, GoodTillCancel, Buy, 100, 10))
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestAddOrder_RejectsReservedOrderTypes(t *testing.T) {
	book := NewBook()
	for _, orderType := range []OrderType{FillOrKill, GoodForDay, Market} {
		_, err := book.AddOrder(NewOrder(1, orderType, Buy, 100, 10))
		assert.ErrorIs(t, err, ErrUnsupportedOrderType, orderType.String())
	}
}

func TestCancelOrder_RemovesRestingOrderAndEmptiesLevel(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Buy, 100, 10)

	book.CancelOrder(1)

	bids, _ := book.Snapshot()
	assert.Empty(t, bids)
}

func TestCancelOrder_UnknownIDIsANoOp(t *testing.T) {
	book := NewBook()
	assert.NotPanics(t, func() { book.CancelOrder(999) })
}

func TestCancelOrder_LeavesSiblingOrdersAtTheSameLevelIntact(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Buy, 100, 10)
	addOK(t, book, 2, GoodTillCancel, Buy, 100, 5)

	book.CancelOrder(1)

	bids, _ := book.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 100, Quantity: 5}}, bids)
}

func TestModifyOrder_ChangesPriceAndLosesTimePriority(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Buy, 100, 10)
	addOK(t, book, 2, GoodTillCancel, Buy, 100, 5)

	_, err := book.ModifyOrder(1, Buy, 101, 10)
	require.NoError(t, err)

	bids, _ := book.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 101, Quantity: 10}, {Price: 100, Quantity: 5}}, bids)
}

func TestModifyOrder_CanTriggerAnImmediateMatch(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 10)
	addOK(t, book, 2, GoodTillCancel, Buy, 90, 10)

	trades, err := book.ModifyOrder(2, Buy, 100, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	bids, asks := book.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestModifyOrder_UnknownIDIsANoOp(t *testing.T) {
	book := NewBook()
	trades, err := book.ModifyOrder(999, Buy, 100, 10)
	assert.NoError(t, err)
	assert.Nil(t, trades)
}

// Universal invariant: the book is never crossed — the best bid is always
// strictly below the best ask once the matching loop settles.
func TestInvariant_BookNeverCrossedAfterSettling(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Buy, 99, 10)
	addOK(t, book, 2, GoodTillCancel, Sell, 101, 10)
	addOK(t, book, 3, GoodTillCancel, Buy, 105, 3)

	bids, asks := book.Snapshot()
	require.NotEmpty(t, bids)
	require.NotEmpty(t, asks)
	assert.Less(t, int32(bids[0].Price), int32(asks[0].Price))
}

// Universal invariant: quantity is conserved across a match — the traded
// quantity never exceeds either side's initial quantity.
func TestInvariant_QuantityConservedAcrossMatch(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 7)
	trades := addOK(t, book, 2, GoodTillCancel, Buy, 100, 12)

	var traded Quantity
	for _, tr := range trades {
		traded += tr.Bid.Quantity
	}
	assert.LessOrEqual(t, traded, Quantity(7))

	bids, _ := book.Snapshot()
	assert.Equal(t, []LevelInfo{{Price: 100, Quantity: 5}}, bids)
}

// Universal invariant: no FillAndKill order is ever visible in a snapshot,
// whether it matched fully, partially, or not at all.
func TestInvariant_FillAndKillNeverVisibleInSnapshot(t *testing.T) {
	book := NewBook()
	addOK(t, book, 1, GoodTillCancel, Sell, 100, 5)
	addOK(t, book, 2, FillAndKill, Buy, 100, 5)

	bids, asks := book.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)

	_, err := book.AddOrder(NewOrder(3, FillAndKill, Buy, 50, 5))
	assert.True(t, errors.Is(err, ErrUnfillable))
	bids, _ = book.Snapshot()
	assert.Empty(t, bids)
}

func TestOrder_FillRejectsOverfill(t *testing.T) {
	o := NewOrder(1, GoodTillCancel, Buy, 100, 5)
	assert.NoError(t, o.Fill(3))
	err := o.Fill(3)
	assert.ErrorIs(t, err, ErrOverfill)
}
