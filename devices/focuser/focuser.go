// Package focuser implements the registry.Focuser capability set over a
// serial-attached electronic focuser. It follows the open-probe-poll
// shape of commonpressure.Sensor, generalized from a single-shot "open,
// send, close" read into the persistent port plus 500ms background
// poller spec.md §4.6 calls for.
package focuser

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/serialport"
)

const (
	readTimeout = 500 * time.Millisecond
	pollPeriod  = 500 * time.Millisecond
	probeCmd    = "FPROBE#"
)

// Config names the serial device and the focuser's fixed travel limits,
// probed once at connect time in a real driver and supplied here the
// way multiserver's ObjSetup supplies per-node parameters.
type Config struct {
	Name     string
	UniqueID string

	PortName string
	Baud     int

	MaxStep      int32
	MaxIncrement int32
}

// Focuser drives a single absolute-position focuser and satisfies
// registry.Focuser.
type Focuser struct {
	cfg Config

	mu        sync.Mutex
	port      *serialport.Port
	connected bool

	stopPoll chan struct{}
	pollDone chan struct{}

	position      int32
	lastCommanded int32
	isMoving      bool
	temperature   float64
	backlash      int32

	lastDirection int // -1, 0, +1, for backlash-on-reversal
}

// New constructs a Focuser. The serial port is opened by SetConnected.
func New(cfg Config) *Focuser {
	return &Focuser{cfg: cfg}
}

func (f *Focuser) Connected() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.connected }

func (f *Focuser) SetConnected(connected bool) error {
	f.mu.Lock()
	if connected == f.connected {
		f.mu.Unlock()
		return nil
	}
	if connected {
		p, err := serialport.Open(serialport.Config{Name: f.cfg.PortName, Baud: f.cfg.Baud})
		if err != nil {
			f.mu.Unlock()
			return alpacaerr.DriverErrorf("open %s: %v", f.cfg.PortName, err)
		}
		// fire-and-forget probe; some firmware never acks this line.
		_ = p.Write([]byte(probeCmd))
		_, _ = p.ReadUntilOrSilence('#', readTimeout)

		f.port = p
		f.connected = true
		f.stopPoll = make(chan struct{})
		f.pollDone = make(chan struct{})
		go f.pollLoop(f.stopPoll, f.pollDone)
		f.mu.Unlock()
		return nil
	}
	close(f.stopPoll)
	doneCh := f.pollDone
	f.mu.Unlock()
	<-doneCh
	f.mu.Lock()
	if f.port != nil {
		_ = f.port.Close()
		f.port = nil
	}
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *Focuser) Description() string        { return f.cfg.Name }
func (f *Focuser) DriverInfo() string          { return "alpacahub focuser driver" }
func (f *Focuser) DriverVersion() string       { return "1.0" }
func (f *Focuser) InterfaceVersion() int32     { return 3 }
func (f *Focuser) Name() string                { return f.cfg.Name }
func (f *Focuser) UniqueID() string            { return f.cfg.UniqueID }
func (f *Focuser) SupportedActions() []string  { return nil }

// pollLoop parses a colon-delimited status line every 500ms into the
// cached state, matching spec.md §4.6's "dedicated thread" poller.
func (f *Focuser) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.mu.Lock()
			port := f.port
			f.mu.Unlock()
			if port == nil {
				continue
			}
			if err := port.Write([]byte("FSTAT#")); err != nil {
				continue
			}
			resp, err := port.ReadUntil('#', readTimeout)
			if err != nil {
				continue
			}
			f.applyStatusLine(string(resp))
		}
	}
}

// applyStatusLine parses "pos:123,moving:0,temp:21.5" -> cached fields.
func (f *Focuser) applyStatusLine(line string) {
	line = strings.TrimSuffix(line, "#")
	fields := strings.Split(line, ",")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, kv := range fields {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "pos":
			if v, err := strconv.Atoi(parts[1]); err == nil {
				f.position = int32(v)
				if f.position == f.lastCommanded {
					f.isMoving = false
				}
			}
		case "moving":
			f.isMoving = parts[1] == "1"
		case "temp":
			if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
				f.temperature = v
			}
		}
	}
}

func (f *Focuser) Absolute() bool { return true }

func (f *Focuser) IsMoving() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.isMoving }

func (f *Focuser) Position() int32 { f.mu.Lock(); defer f.mu.Unlock(); return f.position }

func (f *Focuser) Temperature() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.temperature, nil
}

func (f *Focuser) MaxStep() int32      { return f.cfg.MaxStep }
func (f *Focuser) MaxIncrement() int32 { return f.cfg.MaxIncrement }

func (f *Focuser) Backlash() int32 { f.mu.Lock(); defer f.mu.Unlock(); return f.backlash }

func (f *Focuser) SetBacklash(v int32) error {
	if v < 0 {
		return alpacaerr.InvalidValuef("backlash must be >= 0")
	}
	f.mu.Lock()
	f.backlash = v
	f.mu.Unlock()
	return nil
}

// Move commands an absolute move to position, inserting a backlash
// compensation step when the requested direction reverses the prior
// move -- the behavior SPEC_FULL.md's original_source supplement adds
// for this driver family (primaluce_focuser_rotator.cpp).
func (f *Focuser) Move(position int32) error {
	if position < 0 || position > f.cfg.MaxStep {
		return alpacaerr.InvalidValuef("position %d out of range [0, %d]", position, f.cfg.MaxStep)
	}

	f.mu.Lock()
	port := f.port
	cur := f.position
	direction := 0
	if position > cur {
		direction = 1
	} else if position < cur {
		direction = -1
	}
	needsBacklash := f.backlash > 0 && direction != 0 && f.lastDirection != 0 && direction != f.lastDirection
	backlash := f.backlash
	f.mu.Unlock()

	if port == nil {
		return alpacaerr.NotConnectedf("focuser is not connected")
	}

	target := position
	if needsBacklash {
		target += int32(direction) * backlash
	}

	if err := port.Write([]byte(fmt.Sprintf("FMOVE:%d#", target))); err != nil {
		return alpacaerr.DriverErrorf("write move command: %v", err)
	}

	f.mu.Lock()
	f.isMoving = true
	f.lastCommanded = position
	if direction != 0 {
		f.lastDirection = direction
	}
	f.mu.Unlock()

	if needsBacklash {
		if err := port.Write([]byte(fmt.Sprintf("FMOVE:%d#", position))); err != nil {
			return alpacaerr.DriverErrorf("write backlash settle command: %v", err)
		}
	}
	return nil
}

func (f *Focuser) Halt() error {
	f.mu.Lock()
	port := f.port
	f.mu.Unlock()
	if port == nil {
		return alpacaerr.NotConnectedf("focuser is not connected")
	}
	if err := port.Write([]byte("FHALT#")); err != nil {
		return alpacaerr.DriverErrorf("write halt command: %v", err)
	}
	f.mu.Lock()
	f.isMoving = false
	f.mu.Unlock()
	return nil
}
