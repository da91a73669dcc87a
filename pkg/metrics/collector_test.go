package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector() *Collector {
	return NewCollectorWithRegistry(nil, prometheus.NewRegistry())
}

func TestNewCollectorDefaultsMaxRecords(t *testing.T) {
	c := newTestCollector()
	assert.Equal(t, 1000, c.max)
}

func TestRecordSubmissionAppendsRecord(t *testing.T) {
	c := newTestCollector()
	c.RecordSubmission("opp-1", "sandwich", "1000000000000000000")

	recent := c.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "opp-1", recent[0].OpportunityID)
	assert.Equal(t, "sandwich", recent[0].Kind)
	assert.True(t, recent[0].Submitted)
}

func TestRecentTrimsToWindow(t *testing.T) {
	c := NewCollectorWithRegistry(&CollectorConfig{MaxRecords: 3}, prometheus.NewRegistry())
	for i := 0; i < 5; i++ {
		c.RecordSubmission("opp", "arbitrage", "0")
	}

	recent := c.Recent(10)
	assert.Len(t, recent, 3)
}

func TestRecentZeroReturnsAll(t *testing.T) {
	c := newTestCollector()
	c.RecordSubmission("opp-1", "sandwich", "0")
	c.RecordSubmission("opp-2", "arbitrage", "0")

	assert.Len(t, c.Recent(0), 2)
}

func TestRecordRejectionDoesNotPanicWithoutID(t *testing.T) {
	c := newTestCollector()
	assert.NotPanics(t, func() { c.RecordRejection() })
}

func TestObserveHandleLatencyAndGaugeHelpers(t *testing.T) {
	c := newTestCollector()
	assert.NotPanics(t, func() {
		c.ObserveHandleLatency(15 * time.Millisecond)
		c.SetDedupeSetSize(42)
		c.AddInflightDropped(3)
		c.AddInflightDropped(0)
	})
}
