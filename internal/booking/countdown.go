package booking

import (
	"sync"
	"time"
)

// WarningThreshold is the remaining time below which the countdown reports
// its warning state.
const WarningThreshold = 120 * time.Second

// Countdown tracks the time left until a fixed deadline. Each tick
// recomputes the remainder from the wall clock rather than decrementing a
// counter, so it stays correct across suspend/resume. The expiry callback
// fires exactly once, after which the countdown stops itself.
type Countdown struct {
	deadline time.Time
	interval time.Duration
	now      func() time.Time
	onTick   func(remaining int, warning bool)
	onExpire func()

	expireOnce sync.Once
	stopOnce   sync.Once
	stop       chan struct{}
}

// NewCountdown builds a countdown against an absolute deadline. Callbacks
// may be nil. A new deadline means a new Countdown; instances are not
// reused.
func NewCountdown(deadline time.Time, onTick func(remaining int, warning bool), onExpire func()) *Countdown {
	return &Countdown{
		deadline: deadline,
		interval: time.Second,
		now:      time.Now,
		onTick:   onTick,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}
}

// Start launches the ticking goroutine.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			remaining := c.Remaining()
			if remaining <= 0 {
				c.expire()
				return
			}
			if c.onTick != nil {
				c.onTick(remaining, remaining < int(WarningThreshold/time.Second))
			}
		}
	}
}

func (c *Countdown) expire() {
	c.expireOnce.Do(func() {
		if c.onExpire != nil {
			c.onExpire()
		}
	})
}

// Remaining reports whole seconds left; never negative.
func (c *Countdown) Remaining() int {
	d := c.deadline.Sub(c.now())
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Warning reports whether the remaining time crossed below the threshold.
func (c *Countdown) Warning() bool {
	return c.Remaining() < int(WarningThreshold/time.Second)
}

// Stop cancels the ticking goroutine. Safe to call more than once; a
// stopped countdown never fires its expiry callback.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
