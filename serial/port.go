package serial

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	goserial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/term"
)

const defaultBaud = 9600

// rxBuffer is how many host bytes may queue up between two Step calls
const rxBuffer = 256

// Open returns the host side of an RS-232 port.
//
//	null                      discard output, never receive
//	serial:/dev/ttyUSB0[@baud] a real serial device
//	tty:/dev/pts/3            a terminal or pty in raw mode
func Open(spec string) (io.ReadWriteCloser, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "", "null":
		return nullPort{}, nil
	case "serial":
		name, baud, err := splitBaud(arg)
		if err != nil {
			return nil, err
		}
		options := goserial.OpenOptions{
			PortName:        name,
			BaudRate:        baud,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
		}
		port, err := goserial.Open(options)
		if err != nil {
			return nil, fmt.Errorf("serial: open %s: %w", name, err)
		}
		return port, nil
	case "tty":
		name, baud, err := splitBaud(arg)
		if err != nil {
			return nil, err
		}
		t, err := term.Open(name, term.Speed(int(baud)), term.RawMode)
		if err != nil {
			return nil, fmt.Errorf("serial: open %s: %w", name, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("serial: unknown port type %q", kind)
	}
}

func splitBaud(arg string) (string, uint, error) {
	name, b, ok := strings.Cut(arg, "@")
	if name == "" {
		return "", 0, fmt.Errorf("serial: missing device name")
	}
	if !ok {
		return name, defaultBaud, nil
	}
	baud, err := strconv.ParseUint(b, 10, 32)
	if err != nil || baud == 0 {
		return "", 0, fmt.Errorf("serial: bad baud rate %q", b)
	}
	return name, uint(baud), nil
}

type nullPort struct{}

func (nullPort) Read(p []byte) (int, error)  { return 0, io.EOF }
func (nullPort) Write(p []byte) (int, error) { return len(p), nil }
func (nullPort) Close() error                { return nil }

// pump copies everything the host sends into a channel that the emulated
// side drains in Step. The channel is closed when the reader fails.
func pump(r io.Reader) <-chan byte {
	in := make(chan byte, rxBuffer)
	go func() {
		defer close(in)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				in <- b
			}
			if err != nil {
				return
			}
		}
	}()
	return in
}
