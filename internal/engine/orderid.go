package engine

import (
	"strings"

	"github.com/google/uuid"
)

// Client order id prefixes encode an order's role without a lookup: the
// lifecycle engine can tell a target child from a stop-loss child from
// the 5-character prefix alone.
const (
	prefixMarketEntry = "mrkt-"
	prefixWaitEntry   = "wait-"
	prefixTarget      = "trgt-"
	prefixStopLoss    = "stop-"
)

// newClientOrderID replaces a fresh UUID's leading characters with the
// given role prefix, keeping the standard 36-character length the
// exchange expects.
func newClientOrderID(prefix string) string {
	id := uuid.New().String()
	return prefix + id[len(prefix):]
}

func isTargetOrderID(clientOrderID string) bool {
	return strings.HasPrefix(clientOrderID, prefixTarget)
}

func isStopLossOrderID(clientOrderID string) bool {
	return strings.HasPrefix(clientOrderID, prefixStopLoss)
}

