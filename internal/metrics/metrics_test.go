package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := <-ch
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	return pb.GetCounter().GetValue()
}

func TestMetrics_RecordsAgainstRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderPlaced("BTCUSDT")
	m.OrderPlaced("BTCUSDT")
	m.BracketCompleted("BTCUSDT")
	m.StopLossHit("ETHUSDT")
	m.SetBalance(1234.5)
	m.ReconcilerSwept(3)

	assert.Equal(t, float64(2), counterValue(t, m.ordersPlaced.WithLabelValues("BTCUSDT")))
	assert.Equal(t, float64(1), counterValue(t, m.bracketsCompleted.WithLabelValues("BTCUSDT")))
	assert.Equal(t, float64(1), counterValue(t, m.stopLossHits.WithLabelValues("ETHUSDT")))
	assert.Equal(t, float64(1), counterValue(t, m.reconcilerSweeps))
	assert.Equal(t, float64(3), counterValue(t, m.reconcilerOrphans))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
