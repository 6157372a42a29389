// Package switchbank implements the registry.SwitchBank capability set
// over a serial-attached multi-channel power/dew controller, grounded on
// commonpressure.Sensor's open/send/close shape for individual commands
// plus the 500ms poller spec.md §4.6 asks every serial driver family to
// run, and on pegasus_alpaca_ppba.cpp's channel table for the
// kind-specific value rules (bucketed adjustable voltage, PWM range,
// auto-dew aggressiveness range).
package switchbank

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
	"github.com/nasa-jpl/alpacahub/serialport"
)

const (
	readTimeout = 500 * time.Millisecond
	pollPeriod  = 500 * time.Millisecond
)

// adjustableVoltageBuckets is the fixed set of selectable output voltages
// an adjustable-voltage channel accepts (spec.md §4.6, B3).
var adjustableVoltageBuckets = []float64{3, 5, 7, 8, 9, 12}

// ChannelSpec is the static description of one channel, supplied at
// construction time the way a real controller's channel table is fixed
// in firmware.
type ChannelSpec struct {
	Name        string
	Description string
	Kind        registry.SwitchKind
	Min         float64
	Max         float64
	Step        float64
}

// kindNames maps the config-file spelling of a channel kind to its
// registry.SwitchKind, for cmd/alpacahubsrv's YAML-driven channel table.
var kindNames = map[string]registry.SwitchKind{
	"voltage":             registry.SwitchVoltage,
	"current":             registry.SwitchCurrent,
	"power":               registry.SwitchPower,
	"temperature":         registry.SwitchTemperature,
	"humidity":            registry.SwitchHumidity,
	"dewpoint":            registry.SwitchDewPoint,
	"boolean":             registry.SwitchBooleanOutput,
	"pwm":                 registry.SwitchPWM,
	"selectablevoltage":   registry.SwitchSelectableVoltage,
	"autodewflag":         registry.SwitchAutoDewFlag,
	"aggressiveness":      registry.SwitchAggressiveness,
	"uptime":              registry.SwitchUptime,
}

// ParseKind resolves a channel kind name (case-insensitive) from config
// into a registry.SwitchKind.
func ParseKind(s string) (registry.SwitchKind, error) {
	k, ok := kindNames[strings.ToLower(s)]
	if !ok {
		return 0, alpacaerr.InvalidValuef("unknown switch channel kind %q", s)
	}
	return k, nil
}

// readable is always true: every channel on this hub can be read, only
// writability varies by kind.
func (c ChannelSpec) readable() bool { return true }

func (c ChannelSpec) writable() bool {
	switch c.Kind {
	case registry.SwitchVoltage, registry.SwitchCurrent, registry.SwitchPower,
		registry.SwitchTemperature, registry.SwitchHumidity, registry.SwitchDewPoint,
		registry.SwitchUptime:
		return false
	default:
		return true
	}
}

// Config names the serial device and the fixed channel table.
type Config struct {
	Name     string
	UniqueID string

	PortName string
	Baud     int

	Channels []ChannelSpec
}

// channelState is the cached last-known value of one channel.
type channelState struct {
	value float64
}

// SwitchBank drives a single power/dew controller and satisfies
// registry.SwitchBank.
type SwitchBank struct {
	cfg Config

	mu        sync.Mutex
	port      *serialport.Port
	connected bool

	stopPoll chan struct{}
	pollDone chan struct{}

	state []channelState
}

// New constructs a SwitchBank.
func New(cfg Config) *SwitchBank {
	return &SwitchBank{cfg: cfg, state: make([]channelState, len(cfg.Channels))}
}

func (s *SwitchBank) Connected() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.connected }

func (s *SwitchBank) SetConnected(connected bool) error {
	s.mu.Lock()
	if connected == s.connected {
		s.mu.Unlock()
		return nil
	}
	if connected {
		p, err := serialport.Open(serialport.Config{Name: s.cfg.PortName, Baud: s.cfg.Baud})
		if err != nil {
			s.mu.Unlock()
			return alpacaerr.DriverErrorf("open %s: %v", s.cfg.PortName, err)
		}
		s.port = p
		s.connected = true
		s.stopPoll = make(chan struct{})
		s.pollDone = make(chan struct{})
		go s.pollLoop(s.stopPoll, s.pollDone)
		s.mu.Unlock()
		return nil
	}
	close(s.stopPoll)
	doneCh := s.pollDone
	s.mu.Unlock()
	<-doneCh
	s.mu.Lock()
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *SwitchBank) Description() string       { return s.cfg.Name }
func (s *SwitchBank) DriverInfo() string        { return "alpacahub switch driver" }
func (s *SwitchBank) DriverVersion() string     { return "1.0" }
func (s *SwitchBank) InterfaceVersion() int32   { return 2 }
func (s *SwitchBank) Name() string              { return s.cfg.Name }
func (s *SwitchBank) UniqueID() string          { return s.cfg.UniqueID }
func (s *SwitchBank) SupportedActions() []string { return nil }

// pollLoop reads back every channel's value every 500ms, matching
// spec.md §4.6's "dedicated thread" poller shared by this driver family.
func (s *SwitchBank) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			port := s.port
			s.mu.Unlock()
			if port == nil {
				continue
			}
			if err := port.Write([]byte("PSTAT#")); err != nil {
				continue
			}
			resp, err := port.ReadUntil('#', readTimeout)
			if err != nil {
				continue
			}
			s.applyStatusLine(string(resp))
		}
	}
}

// applyStatusLine parses "0:12.1,1:0,2:128" -- channel index to value --
// into the cached state table.
func (s *SwitchBank) applyStatusLine(line string) {
	line = strings.TrimSuffix(line, "#")
	fields := strings.Split(line, ",")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kv := range fields {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil || idx < 0 || idx >= len(s.state) {
			continue
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		s.state[idx].value = v
	}
}

func (s *SwitchBank) MaxSwitch() int32 { return int32(len(s.cfg.Channels)) }

func (s *SwitchBank) checkIndex(idx int32) error {
	if idx < 0 || int(idx) >= len(s.cfg.Channels) {
		return alpacaerr.InvalidValuef("switch index %d out of range [0, %d)", idx, len(s.cfg.Channels))
	}
	return nil
}

func (s *SwitchBank) ChannelInfo(idx int32) (registry.SwitchChannel, error) {
	if err := s.checkIndex(idx); err != nil {
		return registry.SwitchChannel{}, err
	}
	c := s.cfg.Channels[idx]
	return registry.SwitchChannel{
		Name:        c.Name,
		Description: c.Description,
		Readable:    c.readable(),
		Writable:    c.writable(),
		Kind:        c.Kind,
		Min:         c.Min,
		Max:         c.Max,
		Step:        c.Step,
	}, nil
}

func (s *SwitchBank) GetSwitchValue(idx int32) (float64, error) {
	if err := s.checkIndex(idx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[idx].value, nil
}

func (s *SwitchBank) GetSwitch(idx int32) (bool, error) {
	v, err := s.GetSwitchValue(idx)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// nearestBucket rounds v into the nearest element of
// adjustableVoltageBuckets (spec.md §4.6, B3: "7.5V is accepted and
// transmitted as the 8 bucket").
func nearestBucket(v float64) float64 {
	best := adjustableVoltageBuckets[0]
	bestDist := -1.0
	for _, b := range adjustableVoltageBuckets {
		d := b - v
		if d < 0 {
			d = -d
		}
		// on an exact tie, round up: 7.5V -> 8, never 7.
		if bestDist < 0 || d < bestDist || (d == bestDist && b > best) {
			best, bestDist = b, d
		}
	}
	return best
}

func (s *SwitchBank) SetSwitchValue(idx int32, value float64) error {
	if err := s.checkIndex(idx); err != nil {
		return err
	}
	spec := s.cfg.Channels[idx]
	if !spec.writable() {
		return alpacaerr.InvalidOperationf("switch %q is read-only", spec.Name)
	}

	wire := value
	switch spec.Kind {
	case registry.SwitchSelectableVoltage:
		lo, hi := adjustableVoltageBuckets[0], adjustableVoltageBuckets[len(adjustableVoltageBuckets)-1]
		if value < lo || value > hi {
			return alpacaerr.InvalidValuef("voltage %.2f is outside the selectable range [%g, %g]", value, lo, hi)
		}
		wire = nearestBucket(value)
	case registry.SwitchPWM:
		if value < 0 || value > 255 {
			return alpacaerr.InvalidValuef("PWM value %.0f out of range [0, 255]", value)
		}
	case registry.SwitchAggressiveness:
		if value < 1 || value > 254 {
			return alpacaerr.InvalidValuef("aggressiveness %.0f out of range [1, 254]", value)
		}
	default:
		if value < spec.Min || value > spec.Max {
			return alpacaerr.InvalidValuef("value %.3f out of range [%.3f, %.3f]", value, spec.Min, spec.Max)
		}
	}

	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return alpacaerr.NotConnectedf("switch bank is not connected")
	}

	cmd := fmt.Sprintf("PSET:%d:%g#", idx, wire)
	if err := port.Write([]byte(cmd)); err != nil {
		return alpacaerr.DriverErrorf("write switch command: %v", err)
	}
	resp, err := port.ReadUntil('#', readTimeout)
	if err != nil {
		return alpacaerr.DriverErrorf("read switch echo: %v", err)
	}
	if !echoMatches(string(resp), idx, wire) {
		return alpacaerr.DriverErrorf("switch %q did not echo the commanded value", spec.Name)
	}

	s.mu.Lock()
	s.state[idx].value = wire
	s.mu.Unlock()
	return nil
}

func (s *SwitchBank) SetSwitch(idx int32, on bool) error {
	if err := s.checkIndex(idx); err != nil {
		return err
	}
	spec := s.cfg.Channels[idx]
	v := spec.Min
	if on {
		v = spec.Max
	}
	return s.SetSwitchValue(idx, v)
}

// echoMatches verifies a controller's "PACK:idx:value#" echo against the
// commanded value (spec.md §4.6: "every successful write is verified by
// echo matching").
func echoMatches(resp string, idx int32, value float64) bool {
	resp = strings.TrimSuffix(resp, "#")
	parts := strings.Split(resp, ":")
	if len(parts) != 3 {
		return false
	}
	gotIdx, err := strconv.Atoi(parts[1])
	if err != nil || int32(gotIdx) != idx {
		return false
	}
	gotVal, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return false
	}
	diff := gotVal - value
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}
