package mempool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mev-engine/sandwich-arb-engine/pkg/processing"
	"github.com/mev-engine/sandwich-arb-engine/pkg/queue"
	mevtypes "github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

// InflightBufferSize bounds how many raw subscription payloads can be
// queued between the WebSocket reader and the dedup/dispatch stage
// before the reader starts dropping messages.
const InflightBufferSize = 512

// Handler is invoked once per distinct, filtered, validated
// transaction observed on the feed.
type Handler func(ctx context.Context, tx *mevtypes.Transaction)

// IngestConfig configures an Ingester.
type IngestConfig struct {
	WSURL           string
	DedupeCapacity  int // 0 uses queue.DefaultDedupeCapacity
	WorkerPoolSize  int
	WorkerQueueSize int
	StreamConfig    TransactionStreamConfig
}

// Metrics receives ingest pipeline gauge/counter updates. Satisfied by
// *metrics.Collector; left unset the ingester just keeps its own
// atomic counters, which GetStats still reports.
type Metrics interface {
	SetDedupeSetSize(n int)
	AddInflightDropped(delta int64)
}

// Ingester pulls pending transactions off a WebSocket eth_subscribe
// feed, drops duplicates and anything that fails the coarse filter,
// and dispatches the rest to a bounded worker pool which invokes the
// configured Handler.
type Ingester struct {
	conn    WebSocketConnection
	stream  TransactionStream
	dedupe  *queue.DedupeSet
	pool    processing.WorkerPool
	handler Handler
	log     *zap.SugaredLogger
	metrics Metrics

	wsURL string

	dropped   int64
	delivered int64
}

// SetMetrics wires a Metrics sink into the ingester. Must be called
// before Run to observe drops and dedupe size from pipeline startup.
func (ig *Ingester) SetMetrics(m Metrics) {
	ig.metrics = m
}

// NewIngester constructs an Ingester. handler is called from pool
// worker goroutines, so it must be safe for concurrent use.
func NewIngester(cfg IngestConfig, handler Handler, log *zap.SugaredLogger) *Ingester {
	poolCfg := processing.DefaultWorkerPoolConfig()
	if cfg.WorkerPoolSize > 0 {
		poolCfg.PoolSize = cfg.WorkerPoolSize
	}
	if cfg.WorkerQueueSize > 0 {
		poolCfg.QueueSize = cfg.WorkerQueueSize
	}

	return &Ingester{
		conn:    NewWebSocketConnection(log),
		stream:  NewTransactionStream(cfg.StreamConfig),
		dedupe:  queue.NewDedupeSet(cfg.DedupeCapacity),
		pool:    processing.NewWorkerPool(poolCfg),
		handler: handler,
		log:     log,
		wsURL:   cfg.WSURL,
	}
}

// Run connects to the feed and blocks, dispatching transactions to the
// handler until ctx is cancelled or the connection is lost.
func (ig *Ingester) Run(ctx context.Context) error {
	if err := ig.pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}
	defer ig.pool.Stop(context.Background())

	if err := ig.conn.Connect(ctx, ig.wsURL); err != nil {
		return fmt.Errorf("connect to mempool feed: %w", err)
	}
	defer ig.conn.Close()

	msgs, err := ig.conn.Subscribe(ctx, "newPendingTransactions", true)
	if err != nil {
		return fmt.Errorf("subscribe to pending transactions: %w", err)
	}

	inflight := make(chan []byte, InflightBufferSize)
	go ig.drain(ctx, msgs, inflight)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-inflight:
			if !ok {
				return fmt.Errorf("mempool feed closed")
			}
			ig.handleRaw(ctx, raw)
		}
	}
}

// drain forwards messages from the connection into the bounded inflight
// buffer, dropping the newly-arriving message under sustained overload
// rather than blocking the WebSocket reader.
func (ig *Ingester) drain(ctx context.Context, msgs <-chan []byte, inflight chan<- []byte) {
	defer close(inflight)
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case inflight <- raw:
			default:
				dropped := atomic.AddInt64(&ig.dropped, 1)
				if ig.metrics != nil {
					ig.metrics.AddInflightDropped(1)
				}
				if ig.log != nil {
					ig.log.Warnw("dropping pending transaction, inflight buffer full", "dropped_total", dropped)
				}
			}
		}
	}
}

// handleRaw decodes and filters one raw subscription payload, then
// submits a job that validates and delivers it to the handler.
func (ig *Ingester) handleRaw(ctx context.Context, raw []byte) {
	tx, err := ig.stream.ProcessTransaction(ctx, raw)
	if err != nil {
		return
	}

	if ig.dedupe.SeenOrAdd(tx.Hash) {
		return
	}
	if ig.metrics != nil {
		ig.metrics.SetDedupeSetSize(ig.dedupe.Len())
	}

	if !ig.stream.FilterTransaction(tx) {
		return
	}

	job := &dispatchJob{id: tx.Hash, tx: tx, ingester: ig}
	if err := ig.pool.Submit(job); err != nil {
		if ig.log != nil {
			ig.log.Debugw("dropping transaction, worker pool saturated", "hash", tx.Hash, "error", err)
		}
	}
}

// Stats reports ingest pipeline counters.
type Stats struct {
	Dropped   int64
	Delivered int64
	DedupeLen int
	Pool      *processing.WorkerPoolStats
}

// GetStats returns a snapshot of ingest pipeline counters.
func (ig *Ingester) GetStats() Stats {
	return Stats{
		Dropped:   atomic.LoadInt64(&ig.dropped),
		Delivered: atomic.LoadInt64(&ig.delivered),
		DedupeLen: ig.dedupe.Len(),
		Pool:      ig.pool.GetStats(),
	}
}

// dispatchJob validates a decoded transaction and hands it to the
// ingester's handler. It implements processing.Job so it can run on the
// bounded worker pool.
type dispatchJob struct {
	id       string
	tx       *mevtypes.Transaction
	ingester *Ingester
}

func (j *dispatchJob) Execute(ctx context.Context) (interface{}, error) {
	if err := j.ingester.stream.ValidateTransaction(j.tx); err != nil {
		return nil, err
	}
	j.ingester.handler(ctx, j.tx)
	atomic.AddInt64(&j.ingester.delivered, 1)
	return nil, nil
}

func (j *dispatchJob) GetPriority() int          { return 0 }
func (j *dispatchJob) GetID() string             { return j.id }
func (j *dispatchJob) GetTimeout() time.Duration { return 2 * time.Second }
