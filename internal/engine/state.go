package engine

import "time"

// MaxTargets bounds the take-profit ladder a bracket ever carries; the
// entry's quantity is halved at every step but the last, which closes
// whatever remains via ClosePosition instead of a fixed quantity.
const MaxTargets = 5

// WaitOrderExpiry is how long a resting (non-market) entry order may sit
// unfilled before the reconciler cancels it.
const WaitOrderExpiry = 24 * time.Hour

// OrderWatchInterval is the reconciler sweep period.
const OrderWatchInterval = 5 * time.Minute

// ChildRole distinguishes a bracket child's purpose.
type ChildRole string

const (
	RoleTarget   ChildRole = "TARGET"
	RoleStopLoss ChildRole = "STOP_LOSS"
)

// ChildOrder is one bracket leg: a take-profit target or the stop loss.
type ChildOrder struct {
	OrderID       int64
	ClientOrderID string
	Role          ChildRole
	Price         float64
	Qty           float64
	Filled        bool
}

// Order is a live parent entry and the bracket hanging off it.
type Order struct {
	OrderID       int64
	ClientOrderID string
	Tag           string
	Symbol        string
	Side          string // "LONG" or "SHORT"
	EntryPrice    float64
	Qty           float64
	IsWaitEntry   bool
	PlacedAt      time.Time
	Children      []*ChildOrder

	// Targets and StopLoss are the signal's bracket plan, carried on the
	// parent so a resting (wait) entry can build its bracket once the
	// fill event arrives, long after the originating Signal is gone.
	Targets  []float64
	StopLoss float64
}

// TargetChildren returns the bracket's take-profit legs in placement
// order (nearest to furthest).
func (o *Order) TargetChildren() []*ChildOrder {
	out := make([]*ChildOrder, 0, len(o.Children))
	for _, c := range o.Children {
		if c.Role == RoleTarget {
			out = append(out, c)
		}
	}
	return out
}

// StopLossChild returns the bracket's stop-loss leg, or nil if it has
// already been cancelled/filled and removed.
func (o *Order) StopLossChild() *ChildOrder {
	for _, c := range o.Children {
		if c.Role == RoleStopLoss {
			return c
		}
	}
	return nil
}

// childByClientOrderID finds a child by its client order id.
func (o *Order) childByClientOrderID(id string) *ChildOrder {
	for _, c := range o.Children {
		if c.ClientOrderID == id {
			return c
		}
	}
	return nil
}

// removeChild drops a child by client order id.
func (o *Order) removeChild(id string) {
	out := o.Children[:0]
	for _, c := range o.Children {
		if c.ClientOrderID != id {
			out = append(out, c)
		}
	}
	o.Children = out
}

