package hal

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console is the serial/debug channel used for diagnostics. Output is plain
// text, one line per Printf.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	history []string
	limit   int
	subs    map[int]chan string
	nextSub int
}

// NewConsole writes lines to w and keeps the last limit lines in memory.
func NewConsole(w io.Writer, limit int) *Console {
	if w == nil {
		w = io.Discard
	}
	if limit <= 0 {
		limit = 256
	}
	return &Console{
		w:     w,
		limit: limit,
		subs:  make(map[int]chan string),
	}
}

// Printf formats one diagnostic line.
func (c *Console) Printf(format string, args ...interface{}) {
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w, line)
	c.history = append(c.history, line)
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	for _, ch := range c.subs {
		// Slow readers lose lines rather than stall a trap.
		select {
		case ch <- line:
		default:
		}
	}
}

// Lines returns the retained history.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}

// Subscribe streams every subsequent line until cancel is called.
func (c *Console) Subscribe(buffer int) (<-chan string, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan string, buffer)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
