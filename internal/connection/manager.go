package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tradewatch/marketstream/internal/model"
)

// Manager owns at most one live transport connection to the feed. Connect
// walks the endpoint catalog in order; the first candidate to open wins and
// is promoted for subsequent passes. Inbound frames are forwarded to a
// stable channel that survives reconnects; abnormal losses are reported on
// the Losses channel for the reconnection controller to act on.
type Manager interface {
	// Connect walks the catalog with a bounded per-candidate timeout until
	// a candidate opens. Returns ErrAllEndpointsFailed on exhaustion; the
	// caller decides whether to retry the catalog or activate fallback.
	Connect(ctx context.Context) error

	// Close tears down the active transport with a normal-closure code.
	// This is the only path that suppresses loss reporting.
	Close() error

	// Send marshals a frame and writes it to the active transport. It is a
	// logged no-op when no connection is open; callers must not depend on
	// delivery confirmation.
	Send(frame any)

	// Inbound returns the stable channel of received frames.
	Inbound() <-chan TimestampedMessage

	// Losses returns a channel receiving one error per abnormal transport
	// loss. Normal closures and replaced connections are not reported.
	Losses() <-chan error

	// State returns the current connection state.
	State() model.ConnState

	// SetState records a state transition made outside the manager. Only
	// the reconnection controller calls this, to flag fallback activation.
	SetState(state model.ConnState)

	// IsConnected reports whether a transport connection is open.
	IsConnected() bool
}

// manager implements the Manager interface.
type manager struct {
	cfg     ManagerConfig
	catalog *EndpointCatalog
	logger  *slog.Logger

	// Output channels
	inbound chan TimestampedMessage
	losses  chan error

	done chan struct{}
	wg   sync.WaitGroup

	mu          sync.RWMutex
	client      Client
	stopPump    chan struct{}
	state       model.ConnState
	manualClose bool
	closed      bool
}

// NewManager creates a Connection Manager over the given catalog.
func NewManager(cfg ManagerConfig, catalog *EndpointCatalog, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &manager{
		cfg:     cfg,
		catalog: catalog,
		logger:  logger,
		inbound: make(chan TimestampedMessage, cfg.BufferSize),
		losses:  make(chan error, 1),
		done:    make(chan struct{}),
		state:   model.StateDisconnected,
	}
}

// Connect tries catalog candidates in order until one opens.
func (m *manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.state = model.StateConnecting
	m.mu.Unlock()

	for attempt := 0; ; attempt++ {
		addr, ok := m.catalog.Candidate(attempt)
		if !ok {
			break
		}

		cl := NewClient(ClientConfig{
			URL:          addr,
			DialTimeout:  m.cfg.DialTimeout,
			PingTimeout:  m.cfg.PingTimeout,
			WriteTimeout: m.cfg.WriteTimeout,
			BufferSize:   m.cfg.BufferSize,
		}, m.logger.With("endpoint", addr))

		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
		err := cl.Connect(attemptCtx)
		cancel()

		if err != nil {
			m.logger.Warn("endpoint dial failed", "endpoint", addr, "error", err)
			if ctx.Err() != nil {
				m.setState(model.StateError)
				return ctx.Err()
			}
			continue
		}

		m.mu.Lock()
		old := m.client
		oldStop := m.stopPump
		m.client = cl
		m.stopPump = make(chan struct{})
		stop := m.stopPump
		m.manualClose = false
		m.state = model.StateConnected
		m.mu.Unlock()

		if oldStop != nil {
			close(oldStop)
		}
		if old != nil {
			old.Close()
		}

		m.catalog.Promote(addr)

		m.wg.Add(1)
		go m.pump(cl, stop)

		m.logger.Info("connected", "endpoint", addr)
		return nil
	}

	m.setState(model.StateError)
	return ErrAllEndpointsFailed
}

// Close tears down the active transport and marks the manager closed.
func (m *manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.manualClose = true
	cl := m.client
	m.client = nil
	m.state = model.StateDisconnected
	m.mu.Unlock()

	close(m.done)

	if cl != nil {
		cl.Close()
	}

	m.wg.Wait()
	return nil
}

// Send marshals a frame and writes it to the active transport.
func (m *manager) Send(frame any) {
	m.mu.RLock()
	cl := m.client
	st := m.state
	m.mu.RUnlock()

	if st != model.StateConnected || cl == nil || !cl.IsConnected() {
		m.logger.Warn("send skipped, no open connection", "state", st)
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		m.logger.Warn("frame marshal failed", "error", err)
		return
	}

	if err := cl.Send(data); err != nil {
		m.logger.Warn("send failed", "error", err)
	}
}

// Inbound returns the stable inbound frame channel.
func (m *manager) Inbound() <-chan TimestampedMessage {
	return m.inbound
}

// Losses returns the abnormal-loss channel.
func (m *manager) Losses() <-chan error {
	return m.losses
}

// State returns the current connection state.
func (m *manager) State() model.ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SetState records an externally driven state transition.
func (m *manager) SetState(state model.ConnState) {
	m.setState(state)
}

// IsConnected reports whether a transport connection is open.
func (m *manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == model.StateConnected
}

func (m *manager) setState(state model.ConnState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// pump forwards one connection's frames to the stable inbound channel until
// the connection errors, is replaced, or the manager closes.
func (m *manager) pump(cl Client, stop <-chan struct{}) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return

		case <-stop:
			return

		case msg, ok := <-cl.Messages():
			if !ok {
				return
			}
			select {
			case m.inbound <- msg:
			case <-m.done:
				return
			default:
				m.logger.Warn("inbound buffer full, dropping frame")
			}

		case err := <-cl.Errors():
			m.handleLoss(cl, err)
			return
		}
	}
}

// handleLoss classifies a transport error. Errors from replaced connections
// and normal closures are swallowed; abnormal losses flip the state to error
// and notify the reconnection controller.
func (m *manager) handleLoss(cl Client, err error) {
	m.mu.Lock()
	if m.closed || m.client != cl {
		m.mu.Unlock()
		return
	}
	if m.manualClose || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		m.state = model.StateDisconnected
		m.mu.Unlock()
		return
	}
	m.state = model.StateError
	m.client = nil
	m.mu.Unlock()

	m.logger.Warn("transport lost", "error", err)

	select {
	case m.losses <- err:
	default:
	}
}
