package lottery

import (
	"fmt"
	"io"
	"sync"
)

// console serializes writes from the loop, the announcer and the interrupt
// handler so lines never interleave.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	if w == nil {
		w = io.Discard
	}
	return &console{w: w}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) info(format string, args ...any) {
	c.printf("[INFO] "+format+"\n", args...)
}

func (c *console) error(format string, args ...any) {
	c.printf("[ERROR] "+format+"\n", args...)
}
