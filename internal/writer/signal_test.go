package writer

import (
	"context"
	"testing"
	"time"

	"github.com/tradewatch/marketstream/internal/model"
)

func TestSignalWriter_Transform(t *testing.T) {
	cfg := DefaultWriterConfig()
	w := NewSignalWriter(cfg, nil, nil, nil)

	emitted := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	receivedAt := emitted.Add(80 * time.Millisecond)
	msg := signalMsg{
		signal: model.Signal{
			ID:           "sig-123",
			Symbol:       "NVDA",
			Timestamp:    emitted,
			Action:       model.ActionBuy,
			Confidence:   0.82,
			PriceTarget:  905.0,
			CurrentPrice: 880.0,
			Reasoning:    []string{"momentum breakout", "volume confirmation"},
			Strength:     "strong",
			Origin:       model.OriginLive,
		},
		receivedAt: receivedAt,
	}

	row := w.transform(msg)

	if row.SignalID != "sig-123" {
		t.Errorf("SignalID = %s, want sig-123", row.SignalID)
	}
	if row.Symbol != "NVDA" {
		t.Errorf("Symbol = %s, want NVDA", row.Symbol)
	}
	if row.EmittedTs != emitted.UnixMicro() {
		t.Errorf("EmittedTs = %d, want %d", row.EmittedTs, emitted.UnixMicro())
	}
	if row.ReceivedAt != receivedAt.UnixMicro() {
		t.Errorf("ReceivedAt = %d, want %d", row.ReceivedAt, receivedAt.UnixMicro())
	}
	if row.Action != "BUY" {
		t.Errorf("Action = %q, want %q", row.Action, "BUY")
	}
	if row.Confidence != 0.82 {
		t.Errorf("Confidence = %v, want 0.82", row.Confidence)
	}
	if row.PriceTarget != 905.0 {
		t.Errorf("PriceTarget = %v, want 905.0", row.PriceTarget)
	}
	if row.CurrentPrice != 880.0 {
		t.Errorf("CurrentPrice = %v, want 880.0", row.CurrentPrice)
	}
	if row.Strength != "strong" {
		t.Errorf("Strength = %q, want %q", row.Strength, "strong")
	}
	if len(row.Reasoning) != 2 || row.Reasoning[0] != "momentum breakout" {
		t.Errorf("Reasoning = %v, want copied slice", row.Reasoning)
	}
	if row.Origin != "live" {
		t.Errorf("Origin = %q, want %q", row.Origin, "live")
	}
}

func TestSignalWriter_Transform_CopiesReasoning(t *testing.T) {
	cfg := DefaultWriterConfig()
	w := NewSignalWriter(cfg, nil, nil, nil)

	reasoning := []string{"original"}
	msg := signalMsg{
		signal:     model.Signal{ID: "sig-1", Reasoning: reasoning},
		receivedAt: time.Now(),
	}

	row := w.transform(msg)
	reasoning[0] = "mutated"

	if row.Reasoning[0] != "original" {
		t.Errorf("Reasoning[0] = %q, want %q after caller mutation", row.Reasoning[0], "original")
	}
}

func TestSignalWriter_Lifecycle(t *testing.T) {
	cfg := WriterConfig{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
		BufferSize:    10,
	}

	w := NewSignalWriter(cfg, nil, nil, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestSignalWriter_EnqueueDropsWhenFull(t *testing.T) {
	cfg := WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Hour,
		BufferSize:    1,
	}
	// Never started, so nothing drains the queue.
	w := NewSignalWriter(cfg, nil, nil, nil)

	sig := model.Signal{ID: "sig-1", Symbol: "TEST"}

	if !w.Enqueue(sig) {
		t.Error("first Enqueue = false, want true")
	}
	if w.Enqueue(sig) {
		t.Error("second Enqueue = true, want false when queue is full")
	}

	stats := w.Stats()
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}
}
