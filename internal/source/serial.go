package source

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/apex-data/race.engineer/internal/monitoring"
	"github.com/apex-data/race.engineer/internal/telemetry"
)

// SerialReader ingests telemetry from a dash logger that prints one CSV
// line per update:
//
//	uptime,speed,rpm,gear,fuel,lap_time,best_lap,lap,position
//
// Any field may be left empty, in which case it is absent from the sample.
// Malformed lines are skipped, not fatal.
type SerialReader struct {
	portName string
	baud     int

	mu      sync.Mutex
	port    serial.Port
	samples chan telemetry.Sample
	done    chan struct{}
}

// NewSerialReader creates a reader for the named port at the given baud
// rate. Baud rates below 1 default to 115200.
func NewSerialReader(portName string, baud int) *SerialReader {
	if baud < 1 {
		baud = 115200
	}
	return &SerialReader{portName: portName, baud: baud}
}

// Connect opens the port and starts the line scanner.
func (r *SerialReader) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: r.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(r.portName, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.portName, err)
	}

	r.port = port
	r.samples = make(chan telemetry.Sample, udpQueueDepth)
	r.done = make(chan struct{})
	go r.scanLoop(port, r.samples, r.done)
	monitoring.Logf("serial: reading telemetry from %s @ %d baud", r.portName, r.baud)
	return nil
}

func (r *SerialReader) scanLoop(port serial.Port, out chan telemetry.Sample, done chan struct{}) {
	defer close(done)
	scan := bufio.NewScanner(port)
	for scan.Scan() {
		s, err := ParseLine(scan.Text())
		if err != nil {
			monitoring.Debugf("serial: skipping line: %v", err)
			continue
		}
		select {
		case out <- *s:
		default:
			// Queue full: discard one stale sample and retry once.
			select {
			case <-out:
			default:
			}
			select {
			case out <- *s:
			default:
			}
		}
	}
	if err := scan.Err(); err != nil {
		monitoring.Logf("serial: scan error: %v", err)
	}
}

// ParseLine parses one CSV telemetry line. Empty fields become absent
// sample fields; trailing fields may be omitted entirely.
func ParseLine(line string) (*telemetry.Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty line")
	}
	segments := strings.Split(line, ",")

	s := &telemetry.Sample{}
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		var err error
		switch i {
		case 0:
			s.Timestamp, err = strconv.ParseFloat(seg, 64)
		case 1:
			s.Speed, err = parseFloatField(seg)
		case 2:
			s.RPM, err = parseIntField(seg)
		case 3:
			s.Gear, err = parseIntField(seg)
		case 4:
			s.Fuel, err = parseFloatField(seg)
		case 5:
			s.LapTime, err = parseFloatField(seg)
		case 6:
			s.BestLapTime, err = parseFloatField(seg)
		case 7:
			s.CurrentLap, err = parseIntField(seg)
		case 8:
			s.Position, err = parseIntField(seg)
		}
		if err != nil {
			return nil, fmt.Errorf("field %d %q: %w", i, seg, err)
		}
	}
	return s, nil
}

func parseFloatField(seg string) (*float64, error) {
	v, err := strconv.ParseFloat(seg, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseIntField(seg string) (*int, error) {
	v, err := strconv.Atoi(seg)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Read drains queued lines and returns the newest sample, or (nil, nil)
// when the logger was quiet since the last poll.
func (r *SerialReader) Read() (*telemetry.Sample, error) {
	r.mu.Lock()
	samples := r.samples
	connected := r.port != nil
	r.mu.Unlock()

	if !connected {
		return nil, fmt.Errorf("serial reader not connected")
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

// Disconnect closes the port and stops the scanner.
func (r *SerialReader) Disconnect() error {
	r.mu.Lock()
	port := r.port
	done := r.done
	r.port = nil
	r.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	if done != nil {
		<-done
	}
	return err
}

// IsConnected reports whether the port is open.
func (r *SerialReader) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port != nil
}
