package source

import (
	"net"
	"testing"
	"time"
)

func TestUDPReaderReceivesSamples(t *testing.T) {
	r := NewUDPReader("127.0.0.1:0")
	if err := r.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer r.Disconnect()

	addr := r.conn.LocalAddr().String()
	conn, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	defer conn.Close()

	payloads := []string{
		`not json`,
		`{"timestamp": 1.0, "speed": 200.5, "rpm": 9000}`,
		`{"timestamp": 2.0, "speed": 204.0, "fuel": 44.1}`,
	}
	for _, p := range payloads {
		if _, err := conn.Write([]byte(p)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	// Poll until the receive goroutine has drained the socket.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s, err := r.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if s != nil && s.Timestamp == 2.0 {
			if s.Speed == nil || *s.Speed != 204.0 {
				t.Errorf("Speed = %v, want 204.0", s.Speed)
			}
			if s.Fuel == nil || *s.Fuel != 44.1 {
				t.Errorf("Fuel = %v, want 44.1", s.Fuel)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("never received the latest datagram")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUDPReaderEmptyTick(t *testing.T) {
	r := NewUDPReader("127.0.0.1:0")
	if err := r.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer r.Disconnect()

	s, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s != nil {
		t.Errorf("Read() with no traffic = %+v, want nil", s)
	}
}

func TestUDPReaderNotConnected(t *testing.T) {
	r := NewUDPReader("127.0.0.1:0")
	if _, err := r.Read(); err == nil {
		t.Error("Read() before Connect should error")
	}
	if r.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if err := r.Disconnect(); err != nil {
		t.Errorf("Disconnect() before Connect: %v", err)
	}
}
