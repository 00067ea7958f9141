// Package button watches push buttons wired between a GPIO and ground.
//
// Every button is registered once with a Watcher. Presses are reported to a
// single handler that receives the Button, so the handler dispatches on the
// button itself instead of on per-pin closures.
package button

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
)

// DefaultDebounce is the shortest interval between two accepted presses of
// the same button.
const DefaultDebounce = 250 * time.Millisecond

// pollInterval bounds how long Run takes to notice a cancelled context.
const pollInterval = 100 * time.Millisecond

var errRunning = errors.New("button: watcher is running")

// Button is one watched input.
type Button struct {
	Name string
	Pin  gpio.PinIn

	// Guarded by the watcher's lock
	count int
	last  time.Time
	seen  bool
}

func (b *Button) String() string {
	return fmt.Sprintf("%s(%s)", b.Name, b.Pin)
}

// Handler is called for every accepted press, one call at a time, with the
// number of presses of b accepted so far. It may call back into the Watcher.
type Handler func(b *Button, count int)

// Opts is the configuration for a Watcher.
type Opts struct {
	Debounce time.Duration   // Default: DefaultDebounce
	Clock    clockwork.Clock // Default: the real clock
	Logger   *slog.Logger    // Default: slog.Default()
}

// Watcher dispatches debounced presses of its buttons to a handler.
type Watcher struct {
	mu       sync.Mutex
	hmu      sync.Mutex // Serializes handler calls
	buttons  []*Button
	handler  Handler
	debounce time.Duration
	clock    clockwork.Clock
	log      *slog.Logger
	running  bool
}

// New returns a Watcher calling h for each press.
func New(h Handler, opts *Opts) *Watcher {
	if opts == nil {
		opts = &Opts{}
	}
	w := &Watcher{handler: h, debounce: opts.Debounce, clock: opts.Clock, log: opts.Logger}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.clock == nil {
		w.clock = clockwork.NewRealClock()
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	return w
}

// Add configures pin as a pulled-up input with falling edge detection and
// registers it as name.
func (w *Watcher) Add(name string, pin gpio.PinIn) (*Button, error) {
	if pin == nil || pin == gpio.INVALID {
		return nil, fmt.Errorf("button: %s: invalid pin", name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil, errRunning
	}
	for _, b := range w.buttons {
		if b.Name == name {
			return nil, fmt.Errorf("button: %s: already registered", name)
		}
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("button: %s: %w", name, err)
	}
	b := &Button{Name: name, Pin: pin}
	w.buttons = append(w.buttons, b)
	return b, nil
}

// Buttons returns the registered buttons in registration order.
func (w *Watcher) Buttons() []*Button {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Button(nil), w.buttons...)
}

// Run waits for edges on every button until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errRunning
	}
	w.running = true
	buttons := append([]*Button(nil), w.buttons...)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	var wg sync.WaitGroup
	for _, b := range buttons {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				if b.Pin.WaitForEdge(pollInterval) {
					w.press(b)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// Press injects a press of the named button as if its edge had fired. It
// reports whether the press passed the debounce window.
func (w *Watcher) Press(name string) (bool, error) {
	w.mu.Lock()
	var b *Button
	for _, c := range w.buttons {
		if c.Name == name {
			b = c
		}
	}
	w.mu.Unlock()
	if b == nil {
		return false, fmt.Errorf("button: %s: not registered", name)
	}
	return w.press(b), nil
}

// press records an edge on b and reports whether it was accepted.
func (w *Watcher) press(b *Button) bool {
	w.mu.Lock()
	now := w.clock.Now()
	if b.seen && now.Sub(b.last) < w.debounce {
		w.mu.Unlock()
		w.log.Debug("button: bounce ignored", "button", b.Name)
		return false
	}
	b.last, b.seen = now, true
	b.count++
	count := b.count
	w.mu.Unlock()

	w.log.Info("button: pressed", "button", b.Name, "count", count)
	if w.handler != nil {
		w.hmu.Lock()
		defer w.hmu.Unlock()
		w.handler(b, count)
	}
	return true
}

// Counts returns the press counts as "A=1, B=0", sorted by name.
func (w *Watcher) Counts() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, 0, len(w.buttons))
	for _, b := range w.buttons {
		parts = append(parts, fmt.Sprintf("%s=%d", b.Name, b.count))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
