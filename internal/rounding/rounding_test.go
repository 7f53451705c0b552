package rounding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundPrice_Idempotent(t *testing.T) {
	once := RoundPrice(1.23456, 0.001)
	twice := RoundPrice(once, 0.001)
	assert.Equal(t, once, twice)
}

func TestRoundPrice_TicksDown(t *testing.T) {
	assert.InDelta(t, 1.234, RoundPrice(1.2349, 0.001), 1e-9)
}

func TestRoundQty_StepSize(t *testing.T) {
	assert.InDelta(t, 0.01, RoundQty(0.0199, 0.01), 1e-9)
}

func TestDecimals(t *testing.T) {
	assert.EqualValues(t, 3, Decimals(0.001))
	assert.EqualValues(t, 0, Decimals(1))
	assert.EqualValues(t, 1, Decimals(0.1))
}
