package book

import "github.com/saiputravu/matchbook/internal/domain"

// Level is a FIFO queue of resting orders at one price. All orders it
// holds share Price; the queue is strictly increasing in SubmitTS; no
// order in the queue has Remaining == 0 — a ConsumeHead or cancel that
// would leave a zero-remaining order drops it immediately.
//
// Grounded on the teacher's PriceLevel{priceLevel float64; orders
// []*Order} (internal/engine/orderbook.go), generalized to integer
// Price and extended with cancel-by-id.
type Level struct {
	Price  domain.Price
	Orders []*domain.Order
}

func newLevel(price domain.Price) *Level {
	return &Level{Price: price}
}

// append adds an order to the tail of the level. O(1) amortized.
func (l *Level) append(o *domain.Order) {
	l.Orders = append(l.Orders, o)
}

// PeekHead returns the head order, or nil if the level is empty.
func (l *Level) PeekHead() *domain.Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// ConsumeHead decrements the head order's remaining quantity by up to
// qty, popping it if it reaches zero. Returns the quantity actually
// consumed, which may be less than qty if the head didn't have enough.
func (l *Level) ConsumeHead(qty domain.Qty) domain.Qty {
	if len(l.Orders) == 0 {
		return 0
	}
	head := l.Orders[0]
	consumed := qty
	if consumed > head.Remaining {
		consumed = head.Remaining
	}
	head.Remaining -= consumed
	if head.Remaining == 0 {
		l.Orders = l.Orders[1:]
	}
	return consumed
}

// cancel removes the order with the given id, preserving the relative
// order of the remainder. O(n) in the level's depth. Unexported: only
// Book.Cancel may reach into a level, so it can keep the location index
// it maintains alongside the level's own state consistent.
func (l *Level) cancel(id domain.OrderID) bool {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports how many orders are resting at this level.
func (l *Level) Len() int { return len(l.Orders) }

// IsEmpty reports whether the level holds no orders.
func (l *Level) IsEmpty() bool { return len(l.Orders) == 0 }
