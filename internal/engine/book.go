package engine

import (
	"container/list"
	"fmt"

	"github.com/tidwall/btree"
)

// PriceLevel holds every live order at one price on one side, in strict
// arrival order. container/list gives the index below an O(1) handle for
// cancellation without disturbing the order of its neighbours — the
// same requirement the teacher's slice-backed levels could only meet by
// re-slicing on every removal.
type PriceLevel struct {
	price  Price
	orders *list.List // of *Order
}

func newPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{price: price, orders: list.New()}
}

func (lvl *PriceLevel) totalRemaining() Quantity {
	var total Quantity
	for e := lvl.orders.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Order).RemainingQuantity
	}
	return total
}

// locator is the index's O(1) handle into a level's order list.
type locator struct {
	side  Side
	level *PriceLevel
	elem  *list.Element
}

type priceLevels = btree.BTreeG[*PriceLevel]

// Book is the pair of bid and ask ladders for the single instrument this
// service trades, plus an index giving O(1) cancel/modify lookup by
// OrderId. It is not safe for concurrent use; Gateway provides that.
type Book struct {
	bids  *priceLevels
	asks  *priceLevels
	index map[OrderId]*locator
}

// NewBook returns an empty book. bids iterate best-first descending by
// price, asks best-first ascending, matching §3's two maps.
func NewBook() *Book {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.price > b.price })
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.price < b.price })
	return &Book{
		bids:  bids,
		asks:  asks,
		index: make(map[OrderId]*locator),
	}
}

func (b *Book) levelsFor(side Side) *priceLevels {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) bestLevel(side Side) (*PriceLevel, bool) {
	return b.levelsFor(side).Min()
}

// canMatch reports whether order would cross the opposite side
// immediately at its own limit price, without mutating the book.
func (b *Book) canMatch(order *Order) bool {
	var opposite Side
	if order.Side == Buy {
		opposite = Sell
	} else {
		opposite = Buy
	}
	lvl, ok := b.bestLevel(opposite)
	if !ok {
		return false
	}
	if order.Side == Buy {
		return order.Price >= lvl.price
	}
	return order.Price <= lvl.price
}

// insert appends order to the tail of its (side, price) level, creating
// the level if this is the first order at that price.
func (b *Book) insert(order *Order) {
	levels := b.levelsFor(order.Side)
	probe := &PriceLevel{price: order.Price}
	level, ok := levels.Get(probe)
	if !ok {
		level = newPriceLevel(order.Price)
		levels.Set(level)
	}
	elem := level.orders.PushBack(order)
	b.index[order.ID] = &locator{side: order.Side, level: level, elem: elem}
}

// removeOrder erases an order from its level and the index. It is a
// no-op if id is unknown, which is what makes CancelOrder idempotent.
func (b *Book) removeOrder(id OrderId) {
	loc, ok := b.index[id]
	if !ok {
		return
	}
	loc.level.orders.Remove(loc.elem)
	delete(b.index, id)
	if loc.level.orders.Len() == 0 {
		b.levelsFor(loc.side).Delete(loc.level)
	}
}

// match runs the price-time-priority crossing loop until the book is
// uncrossed or one side empties, per §4.2's algorithm.
func (b *Book) match() []Trade {
	var trades []Trade
	for {
		bidLevel, ok := b.bids.Min()
		if !ok {
			break
		}
		askLevel, ok := b.asks.Min()
		if !ok {
			break
		}
		if bidLevel.price < askLevel.price {
			break
		}

		bidElem := bidLevel.orders.Front()
		askElem := askLevel.orders.Front()
		bid := bidElem.Value.(*Order)
		ask := askElem.Value.(*Order)

		qty := bid.RemainingQuantity
		if ask.RemainingQuantity < qty {
			qty = ask.RemainingQuantity
		}

		if err := bid.Fill(qty); err != nil {
			panic(fmt.Errorf("matching loop: %w", err))
		}
		if err := ask.Fill(qty); err != nil {
			panic(fmt.Errorf("matching loop: %w", err))
		}

		trades = append(trades, Trade{
			Bid: TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: qty},
			Ask: TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: qty},
		})

		if bid.IsFilled() {
			b.removeOrder(bid.ID)
		}
		if ask.IsFilled() {
			b.removeOrder(ask.ID)
		}
	}
	return trades
}

// expireFillAndKill guarantees no FillAndKill order ever rests on the
// book: after the matching loop settles, a FillAndKill order left at the
// top of either side is cancelled in place.
func (b *Book) expireFillAndKill() {
	if lvl, ok := b.bids.Min(); ok {
		if o := lvl.orders.Front().Value.(*Order); o.Type == FillAndKill && !o.IsFilled() {
			b.removeOrder(o.ID)
		}
	}
	if lvl, ok := b.asks.Min(); ok {
		if o := lvl.orders.Front().Value.(*Order); o.Type == FillAndKill && !o.IsFilled() {
			b.removeOrder(o.ID)
		}
	}
}

// AddOrder inserts order and runs the matching loop, returning every
// trade the insertion produced. A rejected order leaves the book
// unchanged and returns (nil, err).
func (b *Book) AddOrder(order *Order) ([]Trade, error) {
	if order.Price <= 0 {
		return nil, fmt.Errorf("order %d: price %d: %w", order.ID, order.Price, ErrInvalidOrder)
	}
	if order.InitialQuantity == 0 {
		return nil, fmt.Errorf("order %d: zero quantity: %w", order.ID, ErrInvalidOrder)
	}
	switch order.Type {
	case GoodTillCancel, FillAndKill:
	default:
		return nil, fmt.Errorf("order %d: %w: %v", order.ID, ErrUnsupportedOrderType, order.Type)
	}
	if _, exists := b.index[order.ID]; exists {
		return nil, fmt.Errorf("order %d: %w", order.ID, ErrDuplicateOrder)
	}
	if order.Type == FillAndKill && !b.canMatch(order) {
		return nil, fmt.Errorf("order %d: %w", order.ID, ErrUnfillable)
	}

	b.insert(order)
	trades := b.match()
	b.expireFillAndKill()
	return trades, nil
}

// CancelOrder removes id from the book. Unknown ids are a no-op.
func (b *Book) CancelOrder(id OrderId) {
	b.removeOrder(id)
}

// ModifyOrder is cancel-then-add: the replacement keeps the original's
// OrderType but goes to the tail of its (possibly new) target level,
// losing whatever time priority the original held. Unknown ids are a
// no-op that returns (nil, nil).
func (b *Book) ModifyOrder(id OrderId, side Side, price Price, quantity Quantity) ([]Trade, error) {
	loc, ok := b.index[id]
	if !ok {
		return nil, nil
	}
	orderType := loc.elem.Value.(*Order).Type
	b.removeOrder(id)
	return b.AddOrder(NewOrder(id, orderType, side, price, quantity))
}

// Snapshot returns the aggregated (price, total remaining quantity) per
// level, bids best-first descending, asks best-first ascending.
func (b *Book) Snapshot() (bids []LevelInfo, asks []LevelInfo) {
	b.bids.Scan(func(lvl *PriceLevel) bool {
		bids = append(bids, LevelInfo{Price: lvl.price, Quantity: lvl.totalRemaining()})
		return true
	})
	b.asks.Scan(func(lvl *PriceLevel) bool {
		asks = append(asks, LevelInfo{Price: lvl.price, Quantity: lvl.totalRemaining()})
		return true
	})
	return bids, asks
}
