package engine

import "sync"

// Gateway serializes every mutation of a Book across concurrent
// sessions while allowing concurrent snapshot reads — the
// readers-writer discipline §4.6 requires. AddOrder, CancelOrder, and
// ModifyOrder each run their entire book-mutation-plus-trade-emission
// sequence under one exclusive acquisition, so a caller's trade list
// always reflects a consistent post-state.
type Gateway struct {
	mu   sync.RWMutex
	book *Book
}

// NewGateway wraps a fresh, empty Book.
func NewGateway() *Gateway {
	return &Gateway{book: NewBook()}
}

func (g *Gateway) AddOrder(order *Order) ([]Trade, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.book.AddOrder(order)
}

func (g *Gateway) CancelOrder(id OrderId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.book.CancelOrder(id)
}

func (g *Gateway) ModifyOrder(id OrderId, side Side, price Price, quantity Quantity) ([]Trade, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.book.ModifyOrder(id, side, price, quantity)
}

// Snapshot acquires only a shared lock: it never blocks behind another
// concurrent snapshot, only behind an in-flight mutation.
func (g *Gateway) Snapshot() (bids []LevelInfo, asks []LevelInfo) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.book.Snapshot()
}
