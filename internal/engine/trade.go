package engine

// TradeInfo is one side of an execution. Price is that side's own quoted
// price, not a single crossing price — the resting side and the
// aggressing side can legitimately carry different prices (§9 of the
// design notes this project was built from).
type TradeInfo struct {
	OrderID  OrderId
	Price    Price
	Quantity Quantity
}

// Trade is a single execution crossing one bid order against one ask
// order for a specific quantity.
type Trade struct {
	Bid TradeInfo
	Ask TradeInfo
}
