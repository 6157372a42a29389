// Package filterwheel implements the registry.FilterWheel capability set
// over a serial-attached filter wheel, in the same open-port-plus-poller
// shape as devices/focuser and devices/rotator.
package filterwheel

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
)

// Config names the serial device and the fixed filter/offset lists. The
// invariant |Names| == |FocusOffsets| (spec.md §3) is enforced by New.
type Config struct {
	Name     string
	UniqueID string

	PortName string
	Baud     int

	Names        []string
	FocusOffsets []int32
}

// FilterWheel drives a single filter wheel and satisfies
// registry.FilterWheel.
type FilterWheel struct {
	cfg Config

	mu        sync.Mutex
	port      *serialport.Port
	connected bool

	stopPoll chan struct{}
	pollDone chan struct{}

	position int32
	target   int32
	busy     bool
}

// New constructs a FilterWheel. Panics if the names/offsets lists are
// mismatched in length -- a wiring bug in the caller's config, not a
// runtime condition spec.md asks this driver to tolerate.
func New(cfg Config) *FilterWheel {
	if len(cfg.Names) != len(cfg.FocusOffsets) {
		panic(fmt.Sprintf("filterwheel: %d names but %d focus offsets", len(cfg.Names), len(cfg.FocusOffsets)))
	}
	return &FilterWheel{cfg: cfg}
}

func (fw *FilterWheel) Connected() bool { fw.mu.Lock(); defer fw.mu.Unlock(); return fw.connected }

func (fw *FilterWheel) SetConnected(connected bool) error {
	fw.mu.Lock()
	if connected == fw.connected {
		fw.mu.Unlock()
		return nil
	}
	if connected {
		p, err := serialport.Open(serialport.Config{Name: fw.cfg.PortName, Baud: fw.cfg.Baud})
		if err != nil {
			fw.mu.Unlock()
			return alpacaerr.DriverErrorf("open %s: %v", fw.cfg.PortName, err)
		}
		fw.port = p
		fw.connected = true
		fw.stopPoll = make(chan struct{})
		fw.pollDone = make(chan struct{})
		go fw.pollLoop(fw.stopPoll, fw.pollDone)
		fw.mu.Unlock()
		return nil
	}
	close(fw.stopPoll)
	doneCh := fw.pollDone
	fw.mu.Unlock()
	<-doneCh
	fw.mu.Lock()
	if fw.port != nil {
		_ = fw.port.Close()
		fw.port = nil
	}
	fw.connected = false
	fw.mu.Unlock()
	return nil
}

func (fw *FilterWheel) Description() string        { return fw.cfg.Name }
func (fw *FilterWheel) DriverInfo() string          { return "alpacahub filterwheel driver" }
func (fw *FilterWheel) DriverVersion() string       { return "1.0" }
func (fw *FilterWheel) InterfaceVersion() int32     { return 2 }
func (fw *FilterWheel) Name() string                { return fw.cfg.Name }
func (fw *FilterWheel) UniqueID() string            { return fw.cfg.UniqueID }
func (fw *FilterWheel) SupportedActions() []string  { return nil }

func (fw *FilterWheel) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fw.mu.Lock()
			port := fw.port
			fw.mu.Unlock()
			if port == nil {
				continue
			}
			if err := port.Write([]byte("WSTAT#")); err != nil {
				continue
			}
			resp, err := port.ReadUntil('#', readTimeout)
			if err != nil {
				continue
			}
			fw.applyStatusLine(string(resp))
		}
	}
}

// applyStatusLine parses "pos:2,moving:0" and clears busy when the wheel
// has settled at the commanded target (spec.md §4.6: "busy flag cleared
// when the next poll reads back the target").
func (fw *FilterWheel) applyStatusLine(line string) {
	line = strings.TrimSuffix(line, "#")
	fields := strings.Split(line, ",")
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for _, kv := range fields {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if parts[0] == "pos" {
			if v, err := strconv.Atoi(parts[1]); err == nil {
				fw.position = int32(v)
				if fw.position == fw.target {
					fw.busy = false
				}
			}
		}
	}
}

func (fw *FilterWheel) Position() int32 { fw.mu.Lock(); defer fw.mu.Unlock(); return fw.position }

// SetPosition moves the wheel. 0 <= position < len(Names) per spec.md
// §3/I4; otherwise InvalidValue.
func (fw *FilterWheel) SetPosition(position int32) error {
	fw.mu.Lock()
	n := int32(len(fw.cfg.Names))
	port := fw.port
	fw.mu.Unlock()

	if position < 0 || position >= n {
		return alpacaerr.InvalidValuef("filter position %d out of range [0, %d)", position, n)
	}
	if port == nil {
		return alpacaerr.NotConnectedf("filterwheel is not connected")
	}
	if err := port.Write([]byte(fmt.Sprintf("WMOVE:%d#", position))); err != nil {
		return alpacaerr.DriverErrorf("write move command: %v", err)
	}
	fw.mu.Lock()
	fw.target = position
	fw.busy = true
	fw.mu.Unlock()
	return nil
}

func (fw *FilterWheel) Names() []string {
	out := make([]string, len(fw.cfg.Names))
	copy(out, fw.cfg.Names)
	return out
}

func (fw *FilterWheel) FocusOffsets() []int32 {
	out := make([]int32, len(fw.cfg.FocusOffsets))
	copy(out, fw.cfg.FocusOffsets)
	return out
}
