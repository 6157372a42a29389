// Package rotator implements the registry.Rotator capability set over a
// serial-attached field rotator, in the same open-port-plus-500ms-poller
// shape as devices/focuser, grounded on commonpressure.Sensor's
// open/send/poll structure.
package rotator

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

// Config names the serial device for a rotator.
type Config struct {
	Name     string
	UniqueID string

	PortName string
	Baud     int
}

// Rotator drives a single field rotator and satisfies registry.Rotator.
type Rotator struct {
	cfg Config

	mu        sync.Mutex
	port      *serialport.Port
	connected bool

	stopPoll chan struct{}
	pollDone chan struct{}

	position           float64
	mechanicalPosition float64
	targetPosition     float64
	isMoving           bool
	reversed           bool

	lastDirection int
	backlashDeg   float64
}

// New constructs a Rotator. The serial port is opened by SetConnected.
func New(cfg Config) *Rotator {
	return &Rotator{cfg: cfg, backlashDeg: 0}
}

func (rt *Rotator) Connected() bool { rt.mu.Lock(); defer rt.mu.Unlock(); return rt.connected }

func (rt *Rotator) SetConnected(connected bool) error {
	rt.mu.Lock()
	if connected == rt.connected {
		rt.mu.Unlock()
		return nil
	}
	if connected {
		p, err := serialport.Open(serialport.Config{Name: rt.cfg.PortName, Baud: rt.cfg.Baud})
		if err != nil {
			rt.mu.Unlock()
			return alpacaerr.DriverErrorf("open %s: %v", rt.cfg.PortName, err)
		}
		rt.port = p
		rt.connected = true
		rt.stopPoll = make(chan struct{})
		rt.pollDone = make(chan struct{})
		go rt.pollLoop(rt.stopPoll, rt.pollDone)
		rt.mu.Unlock()
		return nil
	}
	close(rt.stopPoll)
	doneCh := rt.pollDone
	rt.mu.Unlock()
	<-doneCh
	rt.mu.Lock()
	if rt.port != nil {
		_ = rt.port.Close()
		rt.port = nil
	}
	rt.connected = false
	rt.mu.Unlock()
	return nil
}

func (rt *Rotator) Description() string       { return rt.cfg.Name }
func (rt *Rotator) DriverInfo() string        { return "alpacahub rotator driver" }
func (rt *Rotator) DriverVersion() string     { return "1.0" }
func (rt *Rotator) InterfaceVersion() int32   { return 3 }
func (rt *Rotator) Name() string              { return rt.cfg.Name }
func (rt *Rotator) UniqueID() string          { return rt.cfg.UniqueID }
func (rt *Rotator) SupportedActions() []string { return nil }

func (rt *Rotator) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rt.mu.Lock()
			port := rt.port
			rt.mu.Unlock()
			if port == nil {
				continue
			}
			if err := port.Write([]byte("RSTAT#")); err != nil {
				continue
			}
			resp, err := port.ReadUntil('#', readTimeout)
			if err != nil {
				continue
			}
			rt.applyStatusLine(string(resp))
		}
	}
}

// applyStatusLine parses "pos:123.4,mech:123.1,moving:0" into cached state.
func (rt *Rotator) applyStatusLine(line string) {
	line = strings.TrimSuffix(line, "#")
	fields := strings.Split(line, ",")
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, kv := range fields {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "pos":
			if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
				rt.position = v
				if rt.position == rt.targetPosition {
					rt.isMoving = false
				}
			}
		case "mech":
			if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
				rt.mechanicalPosition = v
			}
		case "moving":
			rt.isMoving = parts[1] == "1"
		}
	}
}

func (rt *Rotator) Position() float64 { rt.mu.Lock(); defer rt.mu.Unlock(); return rt.position }
func (rt *Rotator) MechanicalPosition() float64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.mechanicalPosition
}
func (rt *Rotator) TargetPosition() float64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.targetPosition
}
func (rt *Rotator) IsMoving() bool { rt.mu.Lock(); defer rt.mu.Unlock(); return rt.isMoving }
func (rt *Rotator) Reversed() bool { rt.mu.Lock(); defer rt.mu.Unlock(); return rt.reversed }

func (rt *Rotator) SetReversed(v bool) error {
	rt.mu.Lock()
	port := rt.port
	rt.mu.Unlock()
	if port == nil {
		return alpacaerr.NotConnectedf("rotator is not connected")
	}
	cmd := "0"
	if v {
		cmd = "1"
	}
	if err := port.Write([]byte(fmt.Sprintf("RREV:%s#", cmd))); err != nil {
		return alpacaerr.DriverErrorf("write reversed command: %v", err)
	}
	rt.mu.Lock()
	rt.reversed = v
	rt.mu.Unlock()
	return nil
}

func (rt *Rotator) CanReverse() bool { return true }

func normalizeDeg(v float64) float64 {
	for v < 0 {
		v += 360
	}
	for v >= 360 {
		v -= 360
	}
	return v
}

func (rt *Rotator) moveTo(position float64, mechanical bool) error {
	position = normalizeDeg(position)

	rt.mu.Lock()
	port := rt.port
	cur := rt.position
	direction := 0
	if position > cur {
		direction = 1
	} else if position < cur {
		direction = -1
	}
	needsBacklash := rt.backlashDeg > 0 && direction != 0 && rt.lastDirection != 0 && direction != rt.lastDirection
	backlash := rt.backlashDeg
	rt.mu.Unlock()

	if port == nil {
		return alpacaerr.NotConnectedf("rotator is not connected")
	}

	target := position
	if needsBacklash {
		target = normalizeDeg(target + float64(direction)*backlash)
	}

	cmdName := "RMOVE"
	if mechanical {
		cmdName = "RMOVEMECH"
	}
	if err := port.Write([]byte(fmt.Sprintf("%s:%.4f#", cmdName, target))); err != nil {
		return alpacaerr.DriverErrorf("write move command: %v", err)
	}

	rt.mu.Lock()
	rt.isMoving = true
	rt.targetPosition = position
	if direction != 0 {
		rt.lastDirection = direction
	}
	rt.mu.Unlock()

	if needsBacklash {
		if err := port.Write([]byte(fmt.Sprintf("%s:%.4f#", cmdName, position))); err != nil {
			return alpacaerr.DriverErrorf("write backlash settle command: %v", err)
		}
	}
	return nil
}

// Move issues a relative move of relativePositionDeg from the current
// position.
func (rt *Rotator) Move(relativePositionDeg float64) error {
	rt.mu.Lock()
	cur := rt.position
	rt.mu.Unlock()
	return rt.moveTo(cur+relativePositionDeg, false)
}

func (rt *Rotator) MoveAbsolute(positionDeg float64) error {
	return rt.moveTo(positionDeg, false)
}

func (rt *Rotator) MoveMechanical(positionDeg float64) error {
	return rt.moveTo(positionDeg, true)
}

func (rt *Rotator) Halt() error {
	rt.mu.Lock()
	port := rt.port
	rt.mu.Unlock()
	if port == nil {
		return alpacaerr.NotConnectedf("rotator is not connected")
	}
	if err := port.Write([]byte("RHALT#")); err != nil {
		return alpacaerr.DriverErrorf("write halt command: %v", err)
	}
	rt.mu.Lock()
	rt.isMoving = false
	rt.mu.Unlock()
	return nil
}
