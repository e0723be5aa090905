package utils

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// tickSlack delays each tick slightly past the minute boundary so wall-clock
// reads inside callbacks land in the new minute.
const tickSlack = 500 * time.Millisecond

// MinuteTicker is the shared minute-aligned tick source. It fires all
// subscribed callbacks shortly after every full wall-clock minute, and once
// immediately when the first subscriber arrives. A panicking callback is
// isolated so the remaining subscribers still fire.
type MinuteTicker struct {
	mu      sync.Mutex
	subs    map[uint64]func(time.Time)
	nextID  uint64
	stop    chan struct{}
	running bool
}

func NewMinuteTicker() *MinuteTicker {
	return &MinuteTicker{subs: make(map[uint64]func(time.Time))}
}

// Subscribe registers a callback and returns an unsubscribe function. The
// ticker starts with the first subscriber and stops with the last.
func (t *MinuteTicker) Subscribe(fn func(now time.Time)) (unsubscribe func()) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs[id] = fn
	start := !t.running
	if start {
		t.running = true
		t.stop = make(chan struct{})
	}
	t.mu.Unlock()

	if start {
		t.notify(time.Now())
		go t.run(t.stop)
	}

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
		if len(t.subs) == 0 && t.running {
			t.running = false
			close(t.stop)
		}
	}
}

func (t *MinuteTicker) run(stop chan struct{}) {
	for {
		timer := time.NewTimer(NextMinuteDelay(time.Now()))
		select {
		case now := <-timer.C:
			t.notify(now)
		case <-stop:
			timer.Stop()
			return
		}
	}
}

func (t *MinuteTicker) notify(now time.Time) {
	t.mu.Lock()
	callbacks := make([]func(time.Time), 0, len(t.subs))
	for _, fn := range t.subs {
		callbacks = append(callbacks, fn)
	}
	t.mu.Unlock()

	for _, fn := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("MinuteTicker: subscriber panicked: %v", r)
				}
			}()
			fn(now)
		}()
	}
}

// NextMinuteDelay returns how long to wait from now until the next tick.
func NextMinuteDelay(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute + tickSlack).Sub(now)
}
