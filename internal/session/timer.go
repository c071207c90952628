package session

import (
	"context"
	"sync"
	"time"
)

// roundTimer is the cancellable handle for one countdown. A single
// close-once channel means cancelling an already-cancelled timer is a
// no-op, which keeps the cancel-then-start transitions idempotent.
type roundTimer struct {
	stop chan struct{}
	once sync.Once
}

func (t *roundTimer) cancel() {
	t.once.Do(func() { close(t.stop) })
}

// startTimerLocked starts a fresh countdown at full round duration.
// Any previous timer is cancelled first: at most one timer is ever
// active. Caller holds c.mu.
func (c *Controller) startTimerLocked() {
	c.stopTimerLocked()

	secs := c.maxRoundSeconds
	c.sess.SecondsRemaining = &secs
	c.sess.TimerActive = true

	t := &roundTimer{stop: make(chan struct{})}
	c.timer = t
	go c.runTimer(t)
}

// stopTimerLocked cancels the active timer, if any. Caller holds c.mu.
func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.cancel()
		c.timer = nil
	}
}

func (c *Controller) runTimer(t *roundTimer) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if expired := c.tick(t); expired {
				return
			}
		}
	}
}

// tick advances the countdown by one second. When the countdown reaches
// its floor the timer cancels itself and performs the overtime
// auto-submit: secondsUsed is the round duration plus one, a sentinel
// no in-time submission can produce, and SecondsRemaining is left at -1
// to distinguish "expired" from "never started".
func (c *Controller) tick(t *roundTimer) (expired bool) {
	c.mu.Lock()
	if c.timer != t || c.sess.SecondsRemaining == nil {
		c.mu.Unlock()
		return true
	}

	if *c.sess.SecondsRemaining <= 1 {
		t.cancel()
		c.timer = nil
		negative := -1
		c.sess.SecondsRemaining = &negative
		c.sess.TimerActive = false
		overtime := c.maxRoundSeconds + 1
		c.mu.Unlock()
		c.notify()

		c.logger.Info("round timer expired, auto-submitting", "seconds_used", overtime)
		c.SubmitAnswer(context.Background(), SubmitOptions{SecondsUsed: &overtime})
		return true
	}

	remaining := *c.sess.SecondsRemaining - 1
	c.sess.SecondsRemaining = &remaining
	c.mu.Unlock()
	c.notify()
	return false
}
