package console

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jroimartin/gocui"
)

// Gui writes to a gocui view. Lines are queued and flushed from the gocui
// main loop, so their order is kept whatever goroutine writes them.
type Gui struct {
	g    *gocui.Gui
	view string

	mu      sync.Mutex
	pending []string
}

// NewGui returns a console writing into the named view
func NewGui(g *gocui.Gui, view string) *Gui {
	return &Gui{g: g, view: view}
}

// WriteConsole queues msg, one entry per non empty line
func (c *Gui) WriteConsole(msg string) error {
	c.mu.Lock()
	for _, line := range strings.Split(msg, "\n") {
		if line != "" {
			c.pending = append(c.pending, line)
		}
	}
	c.mu.Unlock()
	c.g.Update(c.flush)
	return nil
}

func (c *Gui) flush(g *gocui.Gui) error {
	v, err := g.View(c.view)
	if err != nil {
		return err
	}
	c.mu.Lock()
	lines := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(v, line)
	}
	return nil
}
