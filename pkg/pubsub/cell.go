package pubsub

import "sync"

// Cell is a current-value publish/subscribe cell. It retains the last
// published value and hands it to late subscribers. Each subscriber channel
// holds at most one pending value; a slow subscriber only sees the latest.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	set    bool
	subs   map[chan T]struct{}
	closed bool
}

// NewCell creates an empty cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{subs: make(map[chan T]struct{})}
}

// NewCellWith creates a cell already holding v.
func NewCellWith[T any](v T) *Cell[T] {
	c := NewCell[T]()
	c.value = v
	c.set = true
	return c
}

// Publish stores v as the current value and offers it to every subscriber.
func (c *Cell[T]) Publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.value = v
	c.set = true
	for ch := range c.subs {
		offer(ch, v)
	}
}

// Current returns the last published value and whether one exists.
func (c *Cell[T]) Current() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

// Subscribe returns a channel receiving the current value (if any) followed
// by every later value. The returned cancel func closes the channel.
func (c *Cell[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	if c.set {
		ch <- c.value
	}
	c.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

// Close closes every subscriber channel. Publish is a no-op afterwards.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for ch := range c.subs {
		close(ch)
		delete(c.subs, ch)
	}
}

// offer replaces any pending value in ch with v. Callers hold the cell lock,
// so no other writer races on ch.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
