package engine

import "errors"

var (
	// ErrInvalidOrder is returned for a non-positive price or a
	// zero/negative quantity.
	ErrInvalidOrder = errors.New("engine: invalid order")

	// ErrDuplicateOrder is returned when AddOrder is called with an
	// OrderId already live in the book.
	ErrDuplicateOrder = errors.New("engine: duplicate order id")

	// ErrUnsupportedOrderType is returned for the three reserved
	// OrderType values that carry no matching semantics.
	ErrUnsupportedOrderType = errors.New("engine: unsupported order type")

	// ErrUnfillable is returned when a FillAndKill order cannot be
	// matched immediately against the opposite side.
	ErrUnfillable = errors.New("engine: fill-and-kill order cannot be matched immediately")

	// ErrOverfill guards Order.Fill against filling past an order's
	// remaining quantity. Seeing this means the matching loop computed a
	// bad quantity; it is a bug, not a runtime condition, and callers
	// should treat it as fatal per the invariant-violation rule.
	ErrOverfill = errors.New("engine: fill exceeds remaining quantity")
)
