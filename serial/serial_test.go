package serial

import (
	"bytes"
	"io"
	"testing"
	"time"

	"altos/interrupts"
)

// loopback is a host port fed from a pipe
type loopback struct {
	io.Reader
	bytes.Buffer
}

func (l *loopback) Write(p []byte) (int, error) { return l.Buffer.Write(p) }
func (l *loopback) Read(p []byte) (int, error)  { return l.Reader.Read(p) }

func initChannel(s *SIO, b bool, wr1 uint8) {
	off := 2
	if b {
		off = 3
	}
	s.WriteCDBA(off, 1)
	s.WriteCDBA(off, wr1)
	s.WriteCDBA(off, 3)
	s.WriteCDBA(off, wr3RxEnable)
	s.WriteCDBA(off, 5)
	s.WriteCDBA(off, wr5TxEnable)
}

func TestSIO_Transmit(t *testing.T) {
	var irq interrupts.Latch
	s := NewSIO(&irq)
	var out bytes.Buffer
	s.Channel(1).out = &out

	// not enabled yet
	s.WriteCDBA(1, 'x')
	initChannel(s, true, wr1TxIntEnable)
	s.WriteCDBA(1, 'o')
	s.WriteCDBA(1, 'k')
	if out.String() != "ok" {
		t.Errorf("sent %q, want \"ok\"", out.String())
	}
	if !irq.State() {
		t.Error("tx interrupt not raised")
	}
	s.WriteCDBA(3, cmdResetTxInt<<3)
	if irq.State() {
		t.Error("tx interrupt not reset")
	}
}

func TestSIO_Receive(t *testing.T) {
	var irq interrupts.Latch
	s := NewSIO(&irq)
	initChannel(s, false, 0x10)

	if st := s.ReadCDBA(2); st&rr0RxAvailable != 0 {
		t.Fatalf("RR0 = %02x with nothing received", st)
	}
	for _, b := range []byte("abcd") {
		s.Channel(0).Receive(b)
	}
	s.Step()
	if !irq.State() {
		t.Error("rx interrupt not raised")
	}
	if st := s.ReadCDBA(2); st&rr0RxAvailable == 0 || st&rr0IntPending == 0 {
		t.Errorf("RR0 = %02x, want rx available and int pending", st)
	}
	got := []byte{s.ReadCDBA(0), s.ReadCDBA(0), s.ReadCDBA(0), s.ReadCDBA(0)}
	// FIFO is three deep, the fourth byte overran
	if string(got[:3]) != "abc" || got[3] != 0 {
		t.Errorf("received %q", got)
	}
	if irq.State() {
		t.Error("rx interrupt still raised with an empty FIFO")
	}
}

func TestSIO_HostPort(t *testing.T) {
	r, w := io.Pipe()
	port := &loopback{Reader: r}
	s := NewSIO(nil)
	s.Channel(0).Attach(port)
	initChannel(s, false, 0)

	go w.Write([]byte("hi"))

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 2 && time.Now().Before(deadline) {
		s.Step()
		if s.ReadCDBA(2)&rr0RxAvailable != 0 {
			got = append(got, s.ReadCDBA(0))
		}
	}
	if string(got) != "hi" {
		t.Errorf("received %q, want \"hi\"", got)
	}

	s.WriteCDBA(0, '!')
	if port.String() != "!" {
		t.Errorf("host got %q", port.String())
	}
	w.Close()
}

func TestSIO_VectorAndDecoding(t *testing.T) {
	s := NewSIO(nil)
	// WR2 lives on channel B only
	s.WriteBACD(3, 2)
	s.WriteBACD(3, 0x40)
	s.WriteBACD(3, 2)
	if got := s.ReadBACD(3); got != 0x40 {
		t.Errorf("RR2 = %02x, want 40", got)
	}
	s.WriteCDBA(3, cmdChannelReset<<3)
	if s.Dump() == "" {
		t.Error("empty dump")
	}
}

func TestACIA(t *testing.T) {
	var irq interrupts.Latch
	a := NewACIA(&irq)
	var out bytes.Buffer
	a.out = &out

	if st := a.Read(0); st != 0 {
		t.Errorf("status in reset = %02x", st)
	}
	a.Write(1, 'x')
	a.Write(0, aciaRxIntEnable|0x15)
	if st := a.Read(0); st != aciaTDRE {
		t.Errorf("status = %02x, want %02x", st, aciaTDRE)
	}
	a.Write(1, 'y')
	if out.String() != "y" {
		t.Errorf("sent %q", out.String())
	}

	a.Receive('z')
	if !irq.State() || a.Read(0)&(aciaRDRF|aciaIRQ) != aciaRDRF|aciaIRQ {
		t.Errorf("status = %02x irq %v", a.Read(0), irq.State())
	}
	if got := a.Read(1); got != 'z' {
		t.Errorf("data = %c", got)
	}
	if irq.State() {
		t.Error("irq still raised")
	}

	a.Write(0, aciaMasterReset)
	if a.Read(0) != 0 {
		t.Error("master reset ignored")
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"", false},
		{"null", false},
		{"bogus:x", true},
		{"serial:", true},
		{"serial:/dev/does-not-exist@fast", true},
		{"tty:/dev/does-not-exist", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			p, err := Open(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if p != nil {
				p.Close()
			}
		})
	}
}
