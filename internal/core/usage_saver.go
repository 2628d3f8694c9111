package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/loaders"
	"github.com/Conversly/design-assistant/internal/utils"
)

// UsageWriter persists relay usage rows.
type UsageWriter interface {
	BatchInsertRelayUsage(ctx context.Context, rows []loaders.RelayUsageRow) error
}

// UsageSaver batches usage records in the background. A nil *UsageSaver is
// valid and drops everything, which is how the service runs without a
// database.
type UsageSaver struct {
	db            UsageWriter
	ch            chan loaders.RelayUsageRow
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	stopOnce      sync.Once
}

const (
	defaultUsageBatchSize  = 100
	defaultFlushInterval   = 500 * time.Millisecond
	defaultChannelCapacity = 10000
)

func NewUsageSaver(db UsageWriter, batchSize int, flushInterval time.Duration) *UsageSaver {
	if batchSize <= 0 {
		batchSize = defaultUsageBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	w := &UsageSaver{
		db:            db,
		ch:            make(chan loaders.RelayUsageRow, defaultChannelCapacity),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *UsageSaver) run() {
	defer close(w.stoppedCh)
	batch := make([]loaders.RelayUsageRow, 0, w.batchSize)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.db.BatchInsertRelayUsage(ctx, batch); err != nil {
			utils.Zlog.Error("Failed to batch insert relay usage", zap.Error(err), zap.Int("count", len(batch)))
			// Best-effort: retry once
			if err2 := w.db.BatchInsertRelayUsage(ctx, batch); err2 != nil {
				utils.Zlog.Error("Retry failed for batch insert relay usage", zap.Error(err2), zap.Int("count", len(batch)))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case row := <-w.ch:
			batch = append(batch, row)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.stopCh:
			// Drain channel
			for {
				select {
				case row := <-w.ch:
					batch = append(batch, row)
					if len(batch) >= w.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Save enqueues a usage record. It never blocks the caller.
func (w *UsageSaver) Save(r UsageRecord) {
	if w == nil {
		return
	}
	row := loaders.RelayUsageRow{
		ID:               uuid.NewString(),
		RequestID:        r.RequestID,
		TurnCount:        r.TurnCount,
		PromptChars:      r.PromptChars,
		ResponseChars:    r.ResponseChars,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		LatencyMs:        r.Latency.Milliseconds(),
		Outcome:          string(r.Outcome),
		CreatedAt:        time.Now().UTC(),
	}

	select {
	case <-w.stopCh:
		utils.Zlog.Debug("Usage saver stopped, record dropped", zap.String("request_id", r.RequestID))
		return
	default:
	}

	select {
	case w.ch <- row:
		// enqueued
	default:
		utils.Zlog.Warn("Usage queue full, record dropped", zap.String("request_id", r.RequestID))
	}
}

// Stop flushes pending records and waits for the worker to exit.
func (w *UsageSaver) Stop() {
	if w == nil {
		return
	}
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stoppedCh
}
