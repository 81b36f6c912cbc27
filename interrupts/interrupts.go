package interrupts

/**
 * Separate package exists mainly in order to avoid cyclic imports:
 * every device drives its outputs through a Line, and the board wires
 * them to whatever sits on the other end.
 */

// Line is a discrete signal between two devices (IRQ, DRQ, NMI, ...).
type Line interface {
	Set(state bool)
}

// LineFunc adapts a plain function to the Line interface.
type LineFunc func(state bool)

// Set calls f(state)
func (f LineFunc) Set(state bool) { f(state) }

// Nop is a line with nothing connected to it.
var Nop = LineFunc(func(bool) {})

// Latch remembers the last state driven onto it.
// Counts rising edges, which is handy for the monitor and tests.
type Latch struct {
	state bool
	Edges int
}

// Set latches the new state
func (l *Latch) Set(state bool) {
	if state && !l.state {
		l.Edges++
	}
	l.state = state
}

// State returns the current level
func (l *Latch) State() bool {
	return l.state
}

// Fan drives every line with the same state.
func Fan(lines ...Line) Line {
	return LineFunc(func(state bool) {
		for _, l := range lines {
			l.Set(state)
		}
	})
}

// Master PIC inputs on the ACS8600 board
const (
	IRSystem = 0 // user mode I/O trap, cleared through clrsys
	IRTimer  = 1 // 8253 channel 2
	IRPIC2   = 2
	IRPIC3   = 3
	IRICS1   = 5
	IRICS2   = 6
	IRSerial = 7
)

// PIC2 inputs on the ACS8600 board
const (
	IRDisk   = 0
	IRFloppy = 1
	IRSintr1 = 3
	IRSintr2 = 4
)
