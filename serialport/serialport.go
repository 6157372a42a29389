// Package serialport wraps an OS serial port with the small synchronous
// transport contract device drivers need: atomic writes and a
// terminator-delimited read with a cancellable timeout.
//
// It plays the role the teacher's comm package (comm.NewTerminator,
// comm.NewTimeout, as used by pi/gcs2.go and commonpressure/
// commonpressure.go) plays for TCP-pooled instruments, adapted to a
// single persistent RS-232 port: each physical port is owned by exactly
// one driver and every read/write goes through the port's mutex
// (spec.md §5).
package serialport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// Config configures the physical link. Baud, parity, stop bits and flow
// control are fixed by the driver that opens the port, not negotiable
// per-call.
type Config struct {
	Name string
	Baud int // 9600 or 115200
}

// Port is a mutex-guarded serial transport. The zero value is not usable;
// construct with Open.
type Port struct {
	mu   sync.Mutex
	conn io.ReadWriteCloser
	name string
}

// Open opens the named serial device with 8 data bits, no parity, one
// stop bit, and no flow control -- the fixed framing spec.md §4.3
// requires for every driver on this hub.
func Open(cfg Config) (*Port, error) {
	sc := &serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 50 * time.Millisecond,
	}
	conn, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Name, err)
	}
	return &Port{conn: conn, name: cfg.Name}, nil
}

// Close releases the underlying port. Safe to call once; a driver calls
// this from set_connected(false) after its poller has joined.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

// Name returns the path the port was opened with, used as a component of
// the device handle's unique_id.
func (p *Port) Name() string { return p.name }

// NewForTesting wraps an arbitrary io.ReadWriteCloser as a Port, bypassing
// the OS serial open call. It exists so driver packages can exercise
// their wire protocols against a fake conn, the same fake-transport
// pattern banshee-data-velocity.report's serial tests use.
func NewForTesting(conn io.ReadWriteCloser) *Port {
	return &Port{conn: conn, name: "test"}
}

// Write sends b atomically: no other Write or ReadUntil call on this port
// observes a partial interleaving.
func (p *Port) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.conn.Write(b)
	return err
}

// readResult carries the outcome of one background read attempt.
type readResult struct {
	buf []byte
	err error
}

// ReadUntil accumulates bytes (including stopChar) until stopChar is
// seen or timeout elapses. A timer is armed for timeout; if it fires
// before the terminator arrives, the in-flight read is treated as
// cancelled and a nil buffer is returned with ErrTimeout. If a successful
// read arrives first, the timer never fires.
//
// ReadUntil holds the port's mutex for the duration of the call, so no
// concurrent ReadUntil/Write may interleave on the same port.
func (p *Port) ReadUntil(stopChar byte, timeout time.Duration) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	resultCh := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 0, 64)
		one := make([]byte, 1)
		for {
			n, err := p.conn.Read(one)
			if n > 0 {
				buf = append(buf, one[0])
				if one[0] == stopChar {
					resultCh <- readResult{buf: buf}
					return
				}
				continue
			}
			if err != nil && err != io.EOF {
				resultCh <- readResult{buf: buf, err: err}
				return
			}
			// tarm/serial returns (0, nil) on a per-read timeout; the
			// caller's outer timer governs when we actually give up.
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.buf, res.err
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// ReadUntilOrSilence behaves like ReadUntil, but treats a timeout as a
// successful, terminator-less response instead of an error -- the
// opt-in mode spec.md §4.3 describes for drivers that fire commands
// with no reply.
func (p *Port) ReadUntilOrSilence(stopChar byte, timeout time.Duration) ([]byte, error) {
	buf, err := p.ReadUntil(stopChar, timeout)
	if err == ErrTimeout {
		return nil, nil
	}
	return buf, err
}
