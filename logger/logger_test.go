package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "altos.log")
	l := New(path)
	l.Printf("Fault at %05x type %04x", 0x12345, 0xfeff)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"ALTOS ", "Initializing " + path, "Fault at 12345 type feff"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}

	// a second logger appends
	New(path).Printf("again")
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "Fault at") || !strings.Contains(string(data), "again") {
		t.Errorf("log was truncated:\n%s", data)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Printf("dropped")
	if l.Writer() == nil {
		t.Error("nil writer")
	}
}
