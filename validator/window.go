package validator

import (
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/oomph-ac/reckon/game"
)

// Window tracks which client is under deep inspection, the lag allowance of every client and how often
// each client was caught. It is shared by all sessions.
type Window struct {
	mu sync.Mutex

	// connected holds every registered client in registration order.
	connected *orderedmap.OrderedMap[string, struct{}]
	target    string
	since     time.Time
	checked   map[string]struct{}

	lag       map[string]float32
	cheats    map[string]int
	exemption map[string]bool

	watch time.Duration
}

// NewWindow creates a window that keeps each client under deep inspection for the duration passed.
func NewWindow(watch time.Duration) *Window {
	if watch <= 0 {
		watch = game.DefaultWatchWindow
	}
	return &Window{
		connected: orderedmap.NewOrderedMap[string, struct{}](),
		checked:   make(map[string]struct{}),
		lag:       make(map[string]float32),
		cheats:    make(map[string]int),
		exemption: make(map[string]bool),
		watch:     watch,
	}
}

// Add registers a client.
func (w *Window) Add(client string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected.Set(client, struct{}{})
}

// Remove forgets everything about a client.
func (w *Window) Remove(client string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.connected.Delete(client)
	delete(w.checked, client)
	delete(w.lag, client)
	delete(w.cheats, client)
	delete(w.exemption, client)
	if w.target == client {
		w.target = ""
	}
}

// Len returns the number of registered clients.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected.Len()
}

// Target returns the client currently under deep inspection.
func (w *Window) Target() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target, w.target != ""
}

// DeepChecked returns true if client is the one under deep inspection at the time passed. The target
// rotates once its watch window elapsed.
func (w *Window) DeepChecked(client string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.target == "" || now.Sub(w.since) >= w.watch {
		w.rotate(now)
	}
	return w.target != "" && w.target == client
}

// rotate moves deep inspection on to the next client, in registration order, that was not inspected
// this cycle. A new cycle starts once every client was inspected.
func (w *Window) rotate(now time.Time) {
	if w.target != "" {
		w.checked[w.target] = struct{}{}
	}
	w.target = ""

	if w.connected.Len() == 0 {
		return
	}
	if w.coversAll() {
		clear(w.checked)
	}
	for el := w.connected.Front(); el != nil; el = el.Next() {
		if _, ok := w.checked[el.Key]; !ok {
			w.target, w.since = el.Key, now
			return
		}
	}
}

func (w *Window) coversAll() bool {
	for el := w.connected.Front(); el != nil; el = el.Next() {
		if _, ok := w.checked[el.Key]; !ok {
			return false
		}
	}
	return true
}

// Lag returns the lag allowance of a client in seconds.
func (w *Window) Lag(client string) float32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lag[client]
}

// SetLag sets the lag allowance of a client, clamped between zero and ceiling.
func (w *Window) SetLag(client string, lag, ceiling float32) float32 {
	w.mu.Lock()
	defer w.mu.Unlock()

	lag = game.ClampFloat(lag, 0, ceiling)
	w.lag[client] = lag
	return lag
}

// Flag increments the cheat counter of a client and returns the new count.
func (w *Window) Flag(client string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cheats[client]++
	return w.cheats[client]
}

// Cheats returns the cheat counter of a client.
func (w *Window) Cheats(client string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cheats[client]
}

// Exempt lets the next report of a client bypass validation, for example after the server moved it.
func (w *Window) Exempt(client string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exemption[client] = true
}

// consumeExemption clears the exemption of a client, returning true if it had one.
func (w *Window) consumeExemption(client string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.exemption[client] {
		return false
	}
	delete(w.exemption, client)
	return true
}
