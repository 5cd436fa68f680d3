package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate is the baud rate used by the reference touch controller.
const DefaultBaudRate = 115200

// ErrNoSample is returned by SerialReader.Read before the first valid line arrives.
var ErrNoSample = errors.New("serial: no sample received yet")

// SerialReader reads samples from a touch controller attached to a serial
// port. The controller writes one line per sample with one '0' or '1'
// character per input line, e.g. "01\n". Read returns the most recent
// valid line.
type SerialReader struct {
	port  io.ReadCloser
	width int
	done  chan struct{}

	mu     sync.Mutex
	latest []bool
	err    error
}

// NewSerialReader opens the port and starts reading lines of the given width.
func NewSerialReader(port string, baudRate, width int) (*SerialReader, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return newSerialReader(conn, width), nil
}

func newSerialReader(port io.ReadCloser, width int) *SerialReader {
	r := &SerialReader{
		port:  port,
		width: width,
		done:  make(chan struct{}),
	}
	go r.readLines()
	return r
}

func (r *SerialReader) readLines() {
	defer close(r.done)

	scanner := bufio.NewScanner(r.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sample, err := parseLine(line, r.width)
		if err != nil {
			log.Printf("serial: skipping line %q: %v", line, err)
			continue
		}

		r.mu.Lock()
		r.latest = sample
		r.mu.Unlock()
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	r.mu.Lock()
	r.err = fmt.Errorf("serial: %w: %w", ErrStreamEnded, err)
	r.mu.Unlock()
}

// parseLine converts a line such as "0110" into line levels.
func parseLine(line string, width int) ([]bool, error) {
	if len(line) != width {
		return nil, fmt.Errorf("got %d levels, want %d", len(line), width)
	}
	levels := make([]bool, width)
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '1':
			levels[i] = true
		case '0':
		default:
			return nil, fmt.Errorf("invalid level %q at position %d", line[i], i)
		}
	}
	return levels, nil
}

// Read returns the most recent sample. It fails once the stream has ended.
func (r *SerialReader) Read() ([]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	if r.latest == nil {
		return nil, ErrNoSample
	}
	return append([]bool(nil), r.latest...), nil
}

// Close closes the port and waits for the reader goroutine to exit.
func (r *SerialReader) Close() error {
	err := r.port.Close()
	<-r.done
	return err
}
