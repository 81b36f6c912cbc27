package main

import (
	"testing"

	"altos/teletype"
)

func TestOpenPorts(t *testing.T) {
	term := teletype.New(nil, "console")
	tests := []struct {
		name    string
		specs   []string
		term    *teletype.Terminal
		wantErr bool
	}{
		{"null ports", []string{"null", "null"}, nil, false},
		{"terminal on channel a", []string{"term", "null"}, term, false},
		{"terminal without gui", []string{"term", "null"}, nil, true},
		{"terminal twice", []string{"term", "term"}, term, true},
		{"unknown port", []string{"null", "modem:1"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports, err := openPorts(tt.specs, tt.term)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openPorts(%v) error = %v, wantErr %v", tt.specs, err, tt.wantErr)
			}
			if err == nil && len(ports) != len(tt.specs) {
				t.Errorf("got %d ports, want %d", len(ports), len(tt.specs))
			}
		})
	}
}

func TestNewBoard(t *testing.T) {
	ports, err := openPorts([]string{"null", "null"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		machine string
		size    int
		wantErr bool
	}{
		{"altos8600", "altos8600", 0x2000, false},
		{"altos8600 short bios", "altos8600", 0x1000, true},
		{"68ksbc", "68ksbc", 0x3000, false},
		{"mccpm", "mccpm", 0x1000, false},
		{"unknown", "pdp11", 0x1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := newBoard(tt.machine, make([]byte, tt.size), ports, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newBoard(%s) error = %v, wantErr %v", tt.machine, err, tt.wantErr)
			}
			if err == nil && b.Name() != tt.machine {
				t.Errorf("Name() = %s, want %s", b.Name(), tt.machine)
			}
		})
	}
}
