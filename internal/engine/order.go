package engine

import "fmt"

// Order is a single resting or in-flight instruction to trade at a given
// price on one side of the book. Mutation is restricted to Fill.
type Order struct {
	ID                OrderId
	Type              OrderType
	Side              Side
	Price             Price
	InitialQuantity   Quantity
	RemainingQuantity Quantity
}

// NewOrder constructs a live order with RemainingQuantity equal to the
// requested quantity.
func NewOrder(id OrderId, orderType OrderType, side Side, price Price, quantity Quantity) *Order {
	return &Order{
		ID:                id,
		Type:              orderType,
		Side:              side,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
	}
}

// FilledQuantity is the complement of RemainingQuantity.
func (o *Order) FilledQuantity() Quantity {
	return o.InitialQuantity - o.RemainingQuantity
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// Fill decrements RemainingQuantity by qty. Filling past what remains is
// an invariant violation, not a recoverable condition.
func (o *Order) Fill(qty Quantity) error {
	if qty > o.RemainingQuantity {
		return fmt.Errorf("order %d: fill %d exceeds remaining %d: %w", o.ID, qty, o.RemainingQuantity, ErrOverfill)
	}
	o.RemainingQuantity -= qty
	return nil
}
