package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/apex-data/race.engineer/internal/monitoring"
	"github.com/apex-data/race.engineer/internal/telemetry"
)

// udpQueueDepth bounds buffered datagrams between the receive goroutine
// and Read. At a 10 Hz poll against a 60 Hz game feed the queue drains
// every tick; when it backs up, old samples are discarded in favour of new
// ones since only the freshest state matters.
const udpQueueDepth = 32

// UDPReader receives JSON-encoded samples pushed by a sim-side bridge over
// UDP. One goroutine owns the socket and feeds a bounded queue; Read drains
// the queue and hands back the newest sample.
type UDPReader struct {
	addr string

	mu      sync.Mutex
	conn    *net.UDPConn
	samples chan telemetry.Sample
	done    chan struct{}
}

// NewUDPReader creates a reader listening on addr (e.g. ":9996").
func NewUDPReader(addr string) *UDPReader {
	return &UDPReader{addr: addr}
}

// Connect binds the UDP socket and starts the receive loop.
func (r *UDPReader) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return nil
	}

	udpAddr, err := net.ResolveUDPAddr("udp", r.addr)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", r.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", r.addr, err)
	}

	r.conn = conn
	r.samples = make(chan telemetry.Sample, udpQueueDepth)
	r.done = make(chan struct{})
	go r.receiveLoop(conn, r.samples, r.done)
	monitoring.Logf("udp: listening for telemetry on %s", conn.LocalAddr())
	return nil
}

func (r *UDPReader) receiveLoop(conn *net.UDPConn, out chan telemetry.Sample, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				monitoring.Logf("udp: read error: %v", err)
			}
			return
		}

		var s telemetry.Sample
		if err := json.Unmarshal(buf[:n], &s); err != nil {
			monitoring.Debugf("udp: skipping malformed datagram: %v", err)
			continue
		}

		// Drop the oldest queued sample rather than stall the socket.
		select {
		case out <- s:
		default:
			select {
			case <-out:
			default:
			}
			select {
			case out <- s:
			default:
			}
		}
	}
}

// Read drains any queued samples and returns the newest, or (nil, nil)
// when nothing arrived since the previous poll.
func (r *UDPReader) Read() (*telemetry.Sample, error) {
	r.mu.Lock()
	samples := r.samples
	connected := r.conn != nil
	r.mu.Unlock()

	if !connected {
		return nil, fmt.Errorf("udp reader not connected")
	}

	var latest *telemetry.Sample
	for {
		select {
		case s := <-samples:
			latest = &s
		default:
			return latest, nil
		}
	}
}

// Disconnect closes the socket and stops the receive loop.
func (r *UDPReader) Disconnect() error {
	r.mu.Lock()
	conn := r.conn
	done := r.done
	r.conn = nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	if done != nil {
		<-done
	}
	return err
}

// IsConnected reports whether the socket is bound.
func (r *UDPReader) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}
