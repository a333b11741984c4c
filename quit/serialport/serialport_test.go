package serialport

import (
	"testing"
)

func TestNew(t *testing.T) {
	b := New("/dev/ttyUSB0", 0, 'q')
	if b.Baud != DefaultBaud {
		t.Fatalf("Expected %d, got %d", DefaultBaud, b.Baud)
	}
	if b.Name() != "serialport /dev/ttyUSB0" {
		t.Fatalf("Unexpected name %q", b.Name())
	}
	// closing a port that was never opened is fine
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenMissingPort(t *testing.T) {
	b := New("/dev/this-port-does-not-exist", 115200, 'q')
	if err := b.Open(); err == nil {
		_ = b.Close()
		t.Fatal("Expected an error for a missing port")
	}
}
