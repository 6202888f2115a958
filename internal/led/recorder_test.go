package led

import (
	"errors"
	"sync"
	"time"
)

var errWriteFailed = errors.New("write failed")

type write struct {
	index int
	value float64
	at    time.Time
}

// recordingController records every write. It fails every write after
// failAfter successful ones when failAfter > 0.
type recordingController struct {
	mu        sync.Mutex
	count     int
	writes    []write
	failAfter int
	closed    bool
}

func newRecorder(count int) *recordingController {
	return &recordingController{count: count}
}

func (r *recordingController) Write(index int, brightness float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter > 0 && len(r.writes) >= r.failAfter {
		return errWriteFailed
	}
	r.writes = append(r.writes, write{index: index, value: brightness, at: time.Now()})
	return nil
}

func (r *recordingController) Len() int {
	return r.count
}

func (r *recordingController) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingController) snapshot() []write {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]write, len(r.writes))
	copy(out, r.writes)
	return out
}

// led returns the writes to a single LED in order.
func (r *recordingController) led(index int) []write {
	var out []write
	for _, w := range r.snapshot() {
		if w.index == index {
			out = append(out, w)
		}
	}
	return out
}

// sequence builds an animation from literal per-frame values applied to every LED.
func sequence(name string, leds int, values ...float64) Animation {
	return Animation{
		Name: name,
		Frames: func(yield func(Frame) bool) {
			for _, v := range values {
				if !yield(uniform(leds, v)) {
					return
				}
			}
		},
	}
}
