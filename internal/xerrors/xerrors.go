// Package xerrors holds the engine's error taxonomy as plain Go error
// values instead of the exceptions the original implementation raised.
package xerrors

import "fmt"

// DuplicateOrderError is returned when a signal's symbol already has a
// live market-type parent, or a wait-type parent that has filled.
// Terminal: the placement retry loop does not retry this one.
type DuplicateOrderError struct {
	Tag  string
	Coin string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("duplicate order for tag=%s coin=%s", e.Tag, e.Coin)
}

// PriceUnavailableError is returned when no live price has arrived yet for
// a symbol that was just subscribed. Retryable.
type PriceUnavailableError struct {
	Symbol string
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("no live price available for %s", e.Symbol)
}

// EntryCrossedError is returned when the live price has already crossed
// past every entry level before an order could be placed. Retryable: the
// caller re-autocorrects against the Price on the next attempt.
type EntryCrossedError struct {
	Price float64
}

func (e *EntryCrossedError) Error() string {
	return fmt.Sprintf("entry crossed, live price now %.8f", e.Price)
}
