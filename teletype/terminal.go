package teletype

import (
	"io"
	"sync"

	"github.com/jroimartin/gocui"
)

// keyBuffer is how many keystrokes may wait for the serial channel
const keyBuffer = 64

// Terminal is a serial terminal drawn in a gocui view. It is the host
// side of a serial channel: bytes written to it are printed, keystrokes
// typed in the view are returned by Read.
type Terminal struct {
	gui  *gocui.Gui
	view string

	keystrokes chan byte
	closeOnce  sync.Once

	mu      sync.Mutex
	pending []byte
}

// New returns a terminal for the named view. Install it as the view's
// editor with Editor once the view exists.
func New(gui *gocui.Gui, view string) *Terminal {
	return &Terminal{
		gui:        gui,
		view:       view,
		keystrokes: make(chan byte, keyBuffer),
	}
}

// Editor returns the gocui editor sending keystrokes to the terminal
func (t *Terminal) Editor() gocui.Editor {
	return gocui.EditorFunc(func(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
		if b, ok := keyByte(key, ch); ok {
			t.Type(b)
		}
	})
}

// Type queues one keystroke. It is dropped when the buffer is full.
func (t *Terminal) Type(b byte) {
	select {
	case t.keystrokes <- b:
	default:
	}
}

// Read blocks for the next keystroke and returns it along with any
// others already queued.
func (t *Terminal) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, ok := <-t.keystrokes
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	n := 1
	for n < len(p) {
		select {
		case b, ok := <-t.keystrokes:
			if !ok {
				return n, nil
			}
			p[n] = b
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Write prints p in the view from the gocui main loop
func (t *Terminal) Write(p []byte) (int, error) {
	out := printable(p)
	if len(out) == 0 {
		return len(p), nil
	}
	t.mu.Lock()
	t.pending = append(t.pending, out...)
	t.mu.Unlock()
	t.gui.Update(t.flush)
	return len(p), nil
}

// Close ends Read with io.EOF
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() { close(t.keystrokes) })
	return nil
}

func (t *Terminal) flush(g *gocui.Gui) error {
	v, err := g.View(t.view)
	if err != nil {
		return err
	}
	t.mu.Lock()
	out := t.pending
	t.pending = nil
	t.mu.Unlock()
	_, err = v.Write(out)
	return err
}

// printable drops carriage returns and other control characters the view
// can't show. Newline, tab and backspace pass.
func printable(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		b &= 0x7f
		switch {
		case b == '\n', b == '\t', b == '\b':
		case b < 0x20, b == 0x7f:
			continue
		}
		out = append(out, b)
	}
	return out
}

// keyByte maps a gocui key event to the ASCII code a terminal sends
func keyByte(key gocui.Key, ch rune) (byte, bool) {
	if ch != 0 {
		if ch > 0x7f {
			return 0, false
		}
		return byte(ch), true
	}
	switch key {
	case gocui.KeyEnter:
		return '\r', true
	case gocui.KeySpace:
		return ' ', true
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		return '\b', true
	}
	if key <= 0x7f {
		return byte(key), true
	}
	return 0, false
}
