// Package fake provides a deterministic in-memory camerasdk.SDK used to
// exercise the exposure state machine in devices/camera without real
// detector hardware.
package fake

import (
	"sync"
	"time"

	"github.com/nasa-jpl/alpacahub/camerasdk"
)

// SDK is a synthetic detector: StartAcquisition produces a frame filled
// with Fill after ExposureDelay (zero by default, making tests run
// instantly), FetchFrame returns it once and blocks on subsequent calls
// until the next StartAcquisition.
type SDK struct {
	mu sync.Mutex

	opened bool
	aoi    camerasdk.AOI
	binX   int
	binY   int
	exptime time.Duration

	// Fill is the pixel value every sample in a produced frame carries.
	Fill uint16
	// ExposureDelay simulates detector readout latency; zero means the
	// frame is ready immediately.
	ExposureDelay time.Duration

	acquiring bool
	ready     bool
	frame     camerasdk.Frame

	coolerOn     bool
	coolerTarget float64
	coolerPWM    float64
	temperature  float64

	ints    map[string]int
	floats  map[string]float64
	bools   map[string]bool
	enums   map[string]string
}

// New returns a fake SDK with a default 100x100 AOI and 1x1 binning.
func New() *SDK {
	return &SDK{
		aoi:         camerasdk.AOI{Left: 0, Top: 0, Width: 100, Height: 100},
		binX:        1,
		binY:        1,
		temperature: 20.0,
		ints:        map[string]int{},
		floats:      map[string]float64{},
		bools:       map[string]bool{},
		enums:       map[string]string{},
	}
}

func (s *SDK) Open() error  { s.opened = true; return nil }
func (s *SDK) Close() error { s.opened = false; return nil }

func (s *SDK) Command(feature string) error { return nil }

func (s *SDK) GetInt(feature string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ints[feature], nil
}
func (s *SDK) SetInt(feature string, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints[feature] = v
	return nil
}
func (s *SDK) GetIntRange(feature string) (int, int, error) { return 0, 65535, nil }

func (s *SDK) GetFloat(feature string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floats[feature], nil
}
func (s *SDK) SetFloat(feature string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats[feature] = v
	return nil
}
func (s *SDK) GetFloatRange(feature string) (float64, float64, error) { return 0, 1000, nil }

func (s *SDK) GetBool(feature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bools[feature], nil
}
func (s *SDK) SetBool(feature string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bools[feature] = v
	return nil
}

func (s *SDK) GetEnumString(feature string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enums[feature], nil
}
func (s *SDK) SetEnumString(feature string, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enums[feature] = v
	return nil
}
func (s *SDK) GetEnumStrings(feature string) ([]string, error) { return []string{"Normal"}, nil }

func (s *SDK) SetExposureTime(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exptime = d
	return nil
}

func (s *SDK) SetAOI(aoi camerasdk.AOI) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aoi = aoi
	return nil
}

func (s *SDK) SetBinning(binX, binY int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binX, s.binY = binX, binY
	return nil
}

func (s *SDK) StartAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = true
	s.ready = false

	width := s.aoi.Width / s.binX
	height := s.aoi.Height / s.binY
	pixels := make([]uint16, width*height)
	for i := range pixels {
		pixels[i] = s.Fill
	}
	s.frame = camerasdk.Frame{Pixels: pixels, Width: width, Height: height, BitsPerPixel: 16}

	delay := s.ExposureDelay
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	}()
	return nil
}

func (s *SDK) AbortAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false
	s.ready = false
	return nil
}

func (s *SDK) FetchFrame(timeout time.Duration) (camerasdk.Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if s.ready {
			f := s.frame
			s.ready = false
			s.acquiring = false
			s.mu.Unlock()
			return f, nil
		}
		s.mu.Unlock()
		if time.Now().After(deadline) {
			return camerasdk.Frame{}, errTimeout{}
		}
		time.Sleep(time.Millisecond)
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "fake: timed out waiting for frame" }

func (s *SDK) ReadSensorTemperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coolerOn {
		// Converge toward the cooler target rather than jumping there,
		// so repeated polls show a believable ramp.
		if s.temperature > s.coolerTarget {
			s.temperature -= 0.5
			if s.temperature < s.coolerTarget {
				s.temperature = s.coolerTarget
			}
		}
	}
	return s.temperature, nil
}

func (s *SDK) SetCoolerTarget(tempC float64, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coolerOn = on
	s.coolerTarget = tempC
	return nil
}

func (s *SDK) SetCoolerPWM(pct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coolerPWM = pct
	return nil
}

// CoolerPWM reports the last value driven by SetCoolerPWM.
func (s *SDK) CoolerPWM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coolerPWM
}
