package subscription

import (
	"sync"

	"github.com/tradewatch/marketstream/internal/model"
)

// Registry is the keyed table of active subscriptions. Registering an
// existing key replaces the prior entry (last-write-wins); the replaced
// entry is disposed so it never delivers again. The registry is the sole
// owner of callback references for the life of an entry.
//
// There is no eviction: a leaked subscription keeps receiving data (live or
// synthetic) until it is disposed or the client is torn down.
type Registry struct {
	mu     sync.RWMutex
	market map[string]*MarketEntry
	ind    map[string]*IndicatorEntry
	sig    map[string]*SignalEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		market: make(map[string]*MarketEntry),
		ind:    make(map[string]*IndicatorEntry),
		sig:    make(map[string]*SignalEntry),
	}
}

// PutMarketData stores sub, replacing and disposing any prior entry under
// the same key.
func (r *Registry) PutMarketData(sub MarketData) *MarketEntry {
	e := &MarketEntry{Key: sub.Key(), Sub: sub}

	r.mu.Lock()
	if old, ok := r.market[e.Key]; ok {
		old.dispose()
	}
	r.market[e.Key] = e
	r.mu.Unlock()

	return e
}

// PutIndicators stores sub, replacing and disposing any prior entry under
// the same key.
func (r *Registry) PutIndicators(sub Indicators) *IndicatorEntry {
	e := &IndicatorEntry{Key: sub.Key(), Sub: sub}

	r.mu.Lock()
	if old, ok := r.ind[e.Key]; ok {
		old.dispose()
	}
	r.ind[e.Key] = e
	r.mu.Unlock()

	return e
}

// PutSignals stores sub, replacing and disposing any prior entry under the
// same key.
func (r *Registry) PutSignals(sub Signals) *SignalEntry {
	symbols := make(map[string]struct{}, len(sub.Symbols))
	for _, s := range sub.Symbols {
		symbols[s] = struct{}{}
	}
	e := &SignalEntry{Key: sub.Key(), Sub: sub, symbols: symbols}

	r.mu.Lock()
	if old, ok := r.sig[e.Key]; ok {
		old.dispose()
	}
	r.sig[e.Key] = e
	r.mu.Unlock()

	return e
}

// RemoveMarketData disposes e and removes it from the table. If the key has
// since been replaced by a newer entry, only e's disposal flag is set.
func (r *Registry) RemoveMarketData(e *MarketEntry) {
	e.dispose()

	r.mu.Lock()
	if cur, ok := r.market[e.Key]; ok && cur == e {
		delete(r.market, e.Key)
	}
	r.mu.Unlock()
}

// RemoveIndicators disposes e and removes it from the table.
func (r *Registry) RemoveIndicators(e *IndicatorEntry) {
	e.dispose()

	r.mu.Lock()
	if cur, ok := r.ind[e.Key]; ok && cur == e {
		delete(r.ind, e.Key)
	}
	r.mu.Unlock()
}

// RemoveSignals disposes e and removes it from the table.
func (r *Registry) RemoveSignals(e *SignalEntry) {
	e.dispose()

	r.mu.Lock()
	if cur, ok := r.sig[e.Key]; ok && cur == e {
		delete(r.sig, e.Key)
	}
	r.mu.Unlock()
}

// FanOutCandle delivers c to every live market-data entry whose symbol
// matches. Timeframe is not filtered at this layer. Returns the number of
// callbacks invoked.
func (r *Registry) FanOutCandle(c model.Candle) int {
	r.mu.RLock()
	targets := make([]*MarketEntry, 0, len(r.market))
	for _, e := range r.market {
		if e.Sub.Symbol == c.Symbol {
			targets = append(targets, e)
		}
	}
	r.mu.RUnlock()

	// Callbacks run outside the lock; the disposed check is the delivery gate.
	n := 0
	for _, e := range targets {
		if e.Disposed() || e.Sub.OnData == nil {
			continue
		}
		e.Sub.OnData(c)
		n++
	}
	return n
}

// FanOutIndicators delivers values to every live indicator entry for the
// symbol. Returns the number of callbacks invoked.
func (r *Registry) FanOutIndicators(symbol string, values []model.IndicatorValue) int {
	r.mu.RLock()
	targets := make([]*IndicatorEntry, 0, len(r.ind))
	for _, e := range r.ind {
		if e.Sub.Symbol == symbol {
			targets = append(targets, e)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, e := range targets {
		if e.Disposed() || e.Sub.OnData == nil {
			continue
		}
		e.Sub.OnData(values)
		n++
	}
	return n
}

// FanOutSignal delivers s to every live signal entry whose symbol set
// contains the signal's symbol. Returns the number of callbacks invoked.
func (r *Registry) FanOutSignal(s model.Signal) int {
	r.mu.RLock()
	targets := make([]*SignalEntry, 0, len(r.sig))
	for _, e := range r.sig {
		if e.Watches(s.Symbol) {
			targets = append(targets, e)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, e := range targets {
		if e.Disposed() || e.Sub.OnSignal == nil {
			continue
		}
		e.Sub.OnSignal(s)
		n++
	}
	return n
}

// FanOutError delivers err to every registered OnError across all three
// subscription kinds. Feed-level errors are global, not per-subscription.
func (r *Registry) FanOutError(err error) int {
	type errTarget struct {
		disposed func() bool
		onError  func(error)
	}

	r.mu.RLock()
	targets := make([]errTarget, 0, len(r.market)+len(r.ind)+len(r.sig))
	for _, e := range r.market {
		targets = append(targets, errTarget{e.Disposed, e.Sub.OnError})
	}
	for _, e := range r.ind {
		targets = append(targets, errTarget{e.Disposed, e.Sub.OnError})
	}
	for _, e := range r.sig {
		targets = append(targets, errTarget{e.Disposed, e.Sub.OnError})
	}
	r.mu.RUnlock()

	n := 0
	for _, t := range targets {
		if t.disposed() || t.onError == nil {
			continue
		}
		t.onError(err)
		n++
	}
	return n
}

// FanOutDisconnect fires OnDisconnect on every live market-data entry.
// Called once per transition into reconnecting, not once per attempt.
func (r *Registry) FanOutDisconnect() int {
	r.mu.RLock()
	targets := make([]*MarketEntry, 0, len(r.market))
	for _, e := range r.market {
		targets = append(targets, e)
	}
	r.mu.RUnlock()

	n := 0
	for _, e := range targets {
		if e.Disposed() || e.Sub.OnDisconnect == nil {
			continue
		}
		e.Sub.OnDisconnect()
		n++
	}
	return n
}

// All returns the live entries of all three kinds, for subscription replay
// and synthetic generation.
func (r *Registry) All() ([]*MarketEntry, []*IndicatorEntry, []*SignalEntry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	market := make([]*MarketEntry, 0, len(r.market))
	for _, e := range r.market {
		market = append(market, e)
	}
	ind := make([]*IndicatorEntry, 0, len(r.ind))
	for _, e := range r.ind {
		ind = append(ind, e)
	}
	sig := make([]*SignalEntry, 0, len(r.sig))
	for _, e := range r.sig {
		sig = append(sig, e)
	}
	return market, ind, sig
}

// Len returns the total number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.market) + len(r.ind) + len(r.sig)
}

// Clear disposes and removes every entry. Used on client teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, e := range r.market {
		e.dispose()
		delete(r.market, k)
	}
	for k, e := range r.ind {
		e.dispose()
		delete(r.ind, k)
	}
	for k, e := range r.sig {
		e.dispose()
		delete(r.sig, k)
	}
}
