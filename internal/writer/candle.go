package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
)

// CandleWriter batches streamed OHLCV bars and writes them to the
// candles table.
type CandleWriter struct {
	cfg    WriterConfig
	logger *slog.Logger
	met    *metrics.Metrics

	input chan candleMsg

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []candleRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

type candleMsg struct {
	candle     model.Candle
	timeframe  string
	receivedAt time.Time
}

// NewCandleWriter creates a new CandleWriter. met may be nil.
func NewCandleWriter(cfg WriterConfig, db *pgxpool.Pool, met *metrics.Metrics, logger *slog.Logger) *CandleWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandleWriter{
		cfg:    cfg,
		db:     db,
		met:    met,
		logger: logger,
		input:  make(chan candleMsg, cfg.BufferSize),
		batch:  make([]candleRow, 0, cfg.BatchSize),
	}
}

// Enqueue queues a candle for persistence. It never blocks; when the
// input queue is full the candle is dropped and false is returned.
func (w *CandleWriter) Enqueue(candle model.Candle, timeframe string) bool {
	msg := candleMsg{candle: candle, timeframe: timeframe, receivedAt: time.Now()}
	select {
	case w.input <- msg:
		return true
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
		return false
	}
}

// Start begins consuming queued candles and writing to the database.
func (w *CandleWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("candle writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer and flushes the pending batch.
func (w *CandleWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping candle writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("candle writer stopped")
	case <-ctx.Done():
		w.logger.Warn("candle writer stop timed out")
	}

	// Final flush
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *CandleWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads queued candles and accumulates batches.
func (w *CandleWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case msg := <-w.input:
			w.handleMessage(msg)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *CandleWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleMessage transforms and adds a candle to the batch.
func (w *CandleWriter) handleMessage(msg candleMsg) {
	row := w.transform(msg)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a candle to a candleRow.
func (w *CandleWriter) transform(msg candleMsg) candleRow {
	return candleRow{
		BarTs:      msg.candle.Timestamp.UnixMicro(),
		ReceivedAt: msg.receivedAt.UnixMicro(),
		Symbol:     msg.candle.Symbol,
		Timeframe:  msg.timeframe,
		Open:       msg.candle.Open,
		High:       msg.candle.High,
		Low:        msg.candle.Low,
		Close:      msg.candle.Close,
		Volume:     msg.candle.Volume,
		Origin:     string(msg.candle.Origin),
	}
}

// flush writes the current batch to the database.
func (w *CandleWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]candleRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("candle batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		if w.met != nil {
			w.met.WriteErrors.WithLabelValues("candles").Inc()
		}
		return
	}

	inserted := len(batch) - conflicts
	w.batchMu.Lock()
	w.metrics.Inserts += int64(inserted)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()
	if w.met != nil {
		w.met.RowsWritten.WithLabelValues("candles").Add(float64(inserted))
	}

	w.logger.Debug("flushed candles",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *CandleWriter) batchInsert(ctx context.Context, rows []candleRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO candles (bar_ts, received_at, symbol, timeframe, open, high, low, close, volume, origin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (symbol, timeframe, bar_ts) DO NOTHING
		`, r.BarTs, r.ReceivedAt, r.Symbol, r.Timeframe, r.Open, r.High, r.Low, r.Close, r.Volume, r.Origin)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
