package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Simple is the line console used without the gocui screen
type Simple struct {
	mu          sync.Mutex
	out         io.Writer
	currentLine int
}

// NewSimple returns a console writing to out
func NewSimple(out io.Writer) *Simple {
	return &Simple{out: out}
}

// WriteConsole prints every non empty line of msg
func (c *Simple) WriteConsole(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range strings.Split(msg, "\n") {
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return err
		}
		c.currentLine++
	}
	return nil
}

// Lines returns how many lines were written
func (c *Simple) Lines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLine
}
