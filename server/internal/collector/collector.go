package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
	"github.com/ttlpool/ttlpool/server/internal/store"
)

// DefaultPeriod is used when neither StartPeriodic nor Config supplies one.
const DefaultPeriod = 30 * time.Second

var (
	// ErrAlreadyRunning is returned by StartPeriodic when a periodic loop is
	// already active or has not finished stopping.
	ErrAlreadyRunning = errors.New("collector is already running")

	// ErrNotRunning is returned by StopPeriodic when there is no running loop
	// to stop.
	ErrNotRunning = errors.New("collector is not running")

	// ErrClosed is returned by StartPeriodic after Close.
	ErrClosed = errors.New("collector is closed")
)

// State is the periodic loop's lifecycle state.
type State int

const (
	Idle State = iota
	Running
	StopRequested
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case StopRequested:
		return "stop_requested"
	default:
		return "idle"
	}
}

// Config holds the initial collector settings. Both fields can be changed
// later with SetDefaultPeriod and SetReactiveMode.
type Config struct {
	// Period is used by StartPeriodic when it is given a non-positive period.
	Period time.Duration

	// Reactive enables a one-shot sweep after every Insert.
	Reactive bool
}

// Collector removes expired entries from a Store.
//
// All exported methods are safe for concurrent use.
type Collector struct {
	store    *store.Store
	notifier Notifier
	now      func() time.Time // injectable for deterministic tests

	reactive      atomic.Bool
	defaultPeriod atomic.Int64

	mu     sync.Mutex
	state  State
	period time.Duration
	wake   chan struct{} // closed by StopPeriodic
	done   chan struct{} // closed when the loop has exited
	closed bool          // set by Close; no new goroutines are tracked after it

	// wg tracks the periodic loop and in-flight reactive sweeps.
	wg sync.WaitGroup
}

// New returns a Collector operating on st. A nil notifier discards all
// notifications.
func New(st *store.Store, n Notifier, cfg Config) *Collector {
	if n == nil {
		n = nopNotifier{}
	}
	c := &Collector{
		store:    st,
		notifier: n,
		now:      time.Now,
	}
	c.SetDefaultPeriod(cfg.Period)
	c.reactive.Store(cfg.Reactive)
	return c
}

// Insert adds an entry to the pool and returns its generated ID. When
// reactive mode is on, one reactive sweep is started in the background;
// Insert does not wait for it. After Close that sweep runs before Insert
// returns.
func (c *Collector) Insert(payload []byte, lifetime time.Duration) string {
	id := c.store.Insert(payload, lifetime)
	c.notifier.EntryInserted(id, lifetime)

	if !c.reactive.Load() {
		return id
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.TriggerReactive()
		return id
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.TriggerReactive()
	}()
	return id
}

// Delete removes the entry with the given ID and reports whether it existed.
func (c *Collector) Delete(id string) bool {
	if !c.store.Delete(id) {
		return false
	}
	c.notifier.EntryDeleted(id)
	return true
}

// Get returns the display view of one entry.
func (c *Collector) Get(id string) (types.EntryView, bool) {
	e, ok := c.store.Get(id)
	if !ok {
		return types.EntryView{}, false
	}
	return e.View(c.now()), true
}

// List returns the display view of every entry, oldest first, with ages
// computed at the time of the call.
func (c *Collector) List() []types.EntryView {
	now := c.now()
	entries := c.store.Snapshot()
	out := make([]types.EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.View(now))
	}
	return out
}

// SetReactiveMode turns sweep-on-insert on or off.
func (c *Collector) SetReactiveMode(enabled bool) {
	c.reactive.Store(enabled)
}

// Reactive reports whether sweep-on-insert is enabled.
func (c *Collector) Reactive() bool {
	return c.reactive.Load()
}

// SetDefaultPeriod changes the period used by later StartPeriodic calls that
// do not pass one. A running loop keeps its period. Non-positive values
// reset to DefaultPeriod.
func (c *Collector) SetDefaultPeriod(d time.Duration) {
	if d <= 0 {
		d = DefaultPeriod
	}
	c.defaultPeriod.Store(int64(d))
}

// DefaultPeriod returns the period StartPeriodic uses when given none.
func (c *Collector) DefaultPeriod() time.Duration {
	return time.Duration(c.defaultPeriod.Load())
}

// State returns the periodic loop's current state.
func (c *Collector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status summarises the collector for display.
func (c *Collector) Status() types.CollectorStatus {
	c.mu.Lock()
	state, period := c.state, c.period
	c.mu.Unlock()

	if state == Idle {
		period = c.DefaultPeriod()
	}
	return types.CollectorStatus{
		State:    state.String(),
		Period:   period,
		Reactive: c.Reactive(),
		Entries:  c.store.Count(),
	}
}

// StartPeriodic starts the periodic sweep loop. A non-positive period uses
// the default period. It returns ErrAlreadyRunning, and does nothing, unless
// the collector is Idle. After Close it returns ErrClosed.
func (c *Collector) StartPeriodic(period time.Duration) error {
	if period <= 0 {
		period = c.DefaultPeriod()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != Idle {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.state = Running
	c.period = period
	c.wake = make(chan struct{})
	c.done = make(chan struct{})
	wake, done := c.wake, c.done
	c.wg.Add(1)
	c.mu.Unlock()

	c.notifier.CollectorStarted(period)
	go c.loop(period, wake, done)
	return nil
}

// StopPeriodic asks the periodic loop to exit and wakes it if it is
// waiting. It returns immediately; the loop returns to Idle on its own.
// It returns ErrNotRunning unless the collector is Running.
func (c *Collector) StopPeriodic() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running {
		return ErrNotRunning
	}
	c.state = StopRequested
	close(c.wake)
	return nil
}

// Done returns a channel that is closed when the current periodic loop has
// exited. It returns nil if no loop has ever been started.
func (c *Collector) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Close stops the periodic loop if one is running and waits for it and for
// every in-flight reactive sweep to finish, or for ctx to be done. Inserts
// after Close still work; their reactive sweeps run in the caller.
// Close may be called more than once.
func (c *Collector) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	_ = c.StopPeriodic() // ErrNotRunning just means there is no loop to stop

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
