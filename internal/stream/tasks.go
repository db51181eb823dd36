package stream

import (
	"context"
	"errors"
	"time"
)

// establishAndSend ensures a live connection for a new subscription and
// sends its request frame, unless the establishment cycle's replay
// already sent it. A nil frame only establishes. Failures surface through
// the subscription's OnError; shutdown races are swallowed.
func (c *Client) establishAndSend(disposed func() bool, frame any, onError func(error)) {
	replayed, err := c.ctrl.establish(c.ctx)
	if err != nil {
		if onError != nil && !disposed() &&
			!errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
			onError(err)
		}
		return
	}
	if replayed || disposed() || frame == nil {
		return
	}
	c.mgr.Send(frame)
}

// refreshLoop re-sends a request frame on a fixed cadence until the
// subscription is disposed or the client shuts down. The loop is owned
// by the subscription's disposer through the stop channel.
func (c *Client) refreshLoop(stop <-chan struct{}, disposed func() bool, interval time.Duration, send func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if disposed() {
				return
			}
			send()
		}
	}
}
