package connection

import "sync"

// DefaultFallbackEndpoints are the built-in feed addresses tried after the
// configured primary and any configured extras.
var DefaultFallbackEndpoints = []string{
	"ws://localhost:8080/ws",
	"ws://localhost:3001/ws",
	"ws://127.0.0.1:8080/stream",
}

// EndpointCatalog holds the ordered list of candidate transport addresses.
// Candidate is a pure lookup with no retry logic of its own; Promote moves
// the last winning address to the front for subsequent passes.
type EndpointCatalog struct {
	mu    sync.RWMutex
	addrs []string
}

// NewEndpointCatalog builds a catalog from the configured primary, optional
// extra fallbacks, and the built-in defaults, de-duplicated in that order.
func NewEndpointCatalog(primary string, extra ...string) *EndpointCatalog {
	seen := make(map[string]struct{})
	addrs := make([]string, 0, 1+len(extra)+len(DefaultFallbackEndpoints))

	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}

	add(primary)
	for _, a := range extra {
		add(a)
	}
	for _, a := range DefaultFallbackEndpoints {
		add(a)
	}

	return &EndpointCatalog{addrs: addrs}
}

// Candidate returns the address for the given attempt index, or false when
// the catalog is exhausted.
func (c *EndpointCatalog) Candidate(attempt int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if attempt < 0 || attempt >= len(c.addrs) {
		return "", false
	}
	return c.addrs[attempt], true
}

// Promote moves addr to the front of the catalog so later passes try it
// first. Unknown addresses are ignored.
func (c *EndpointCatalog) Promote(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, a := range c.addrs {
		if a == addr {
			copy(c.addrs[1:i+1], c.addrs[:i])
			c.addrs[0] = addr
			return
		}
	}
}

// Len returns the number of candidates.
func (c *EndpointCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.addrs)
}
