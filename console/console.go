package console

// Console shows monitor output and status messages. Implementations are
// safe to call from any goroutine.
type Console interface {
	WriteConsole(msg string) error
}

var (
	_ Console = (*Gui)(nil)
	_ Console = (*Simple)(nil)
)
