package console

import (
	"bytes"
	"errors"
	"testing"
)

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("closed") }

func TestSimple_WriteConsole(t *testing.T) {
	tests := []struct {
		name  string
		msgs  []string
		want  string
		lines int
	}{
		{"single line", []string{"ready"}, "ready\n", 1},
		{"blank lines dropped", []string{"\nPIC1: IRR 00\n\nPIC2: IRR 01\n"}, "PIC1: IRR 00\nPIC2: IRR 01\n", 2},
		{"empty", []string{""}, "", 0},
		{"several writes", []string{"a", "b\nc"}, "a\nb\nc\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewSimple(&buf)
			for _, m := range tt.msgs {
				if err := c.WriteConsole(m); err != nil {
					t.Fatal(err)
				}
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
			if c.Lines() != tt.lines {
				t.Errorf("Lines() = %d, want %d", c.Lines(), tt.lines)
			}
		})
	}
}

func TestSimple_WriteError(t *testing.T) {
	c := NewSimple(failWriter{})
	if err := c.WriteConsole("x"); err == nil {
		t.Error("write error not returned")
	}
}
