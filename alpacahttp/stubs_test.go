package alpacahttp

import (
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
)

// stubCommon is the minimal Common implementation shared by every stub
// device used across this package's tests.
type stubCommon struct {
	name      string
	connected bool
}

func (s *stubCommon) Connected() bool         { return s.connected }
func (s *stubCommon) SetConnected(c bool) error {
	s.connected = c
	return nil
}
func (s *stubCommon) Description() string      { return "stub device" }
func (s *stubCommon) DriverInfo() string       { return "stub driver" }
func (s *stubCommon) DriverVersion() string    { return "0.0.1" }
func (s *stubCommon) InterfaceVersion() int32  { return 1 }
func (s *stubCommon) Name() string             { return s.name }
func (s *stubCommon) UniqueID() string         { return "stub-" + s.name }
func (s *stubCommon) SupportedActions() []string { return nil }

// stubRotator is a minimal Rotator used to exercise dispatch_rotator.go.
type stubRotator struct {
	stubCommon
	position float64
	reversed bool
	moved    float64
	halted   bool
}

func (r *stubRotator) Position() float64           { return r.position }
func (r *stubRotator) MechanicalPosition() float64 { return r.position }
func (r *stubRotator) TargetPosition() float64     { return r.position }
func (r *stubRotator) IsMoving() bool              { return false }
func (r *stubRotator) Reversed() bool              { return r.reversed }
func (r *stubRotator) SetReversed(v bool) error {
	r.reversed = v
	return nil
}
func (r *stubRotator) CanReverse() bool { return true }
func (r *stubRotator) Move(relDeg float64) error {
	r.moved = relDeg
	return nil
}
func (r *stubRotator) MoveAbsolute(posDeg float64) error {
	r.position = posDeg
	return nil
}
func (r *stubRotator) MoveMechanical(posDeg float64) error {
	r.position = posDeg
	return nil
}
func (r *stubRotator) Halt() error {
	r.halted = true
	return nil
}

// stubSwitchBank is a minimal SwitchBank used to exercise
// dispatch_switch.go.
type stubSwitchBank struct {
	stubCommon
	channels []registry.SwitchChannel
	values   []float64
}

func (b *stubSwitchBank) MaxSwitch() int32 { return int32(len(b.channels)) }

func (b *stubSwitchBank) ChannelInfo(idx int32) (registry.SwitchChannel, error) {
	if idx < 0 || int(idx) >= len(b.channels) {
		return registry.SwitchChannel{}, registryOutOfRange(idx)
	}
	return b.channels[idx], nil
}

func (b *stubSwitchBank) GetSwitchValue(idx int32) (float64, error) {
	if idx < 0 || int(idx) >= len(b.values) {
		return 0, registryOutOfRange(idx)
	}
	return b.values[idx], nil
}

func (b *stubSwitchBank) SetSwitchValue(idx int32, value float64) error {
	if idx < 0 || int(idx) >= len(b.values) {
		return registryOutOfRange(idx)
	}
	ch := b.channels[idx]
	if !ch.Writable {
		return alpacaerr.InvalidOperationf("channel is read-only")
	}
	b.values[idx] = value
	return nil
}

func (b *stubSwitchBank) GetSwitch(idx int32) (bool, error) {
	v, err := b.GetSwitchValue(idx)
	return v != 0, err
}

func (b *stubSwitchBank) SetSwitch(idx int32, on bool) error {
	v := 0.0
	if on {
		v = 1.0
	}
	return b.SetSwitchValue(idx, v)
}

// stubCamera implements just enough of Camera for the imagebytes and
// connected-gating tests; everything not exercised returns zero values.
type stubCamera struct {
	stubCommon
	imageReady bool
	pixels     [][]int32
	variant    string
}

func (c *stubCamera) CameraState() registry.CameraState { return registry.CameraIdle }
func (c *stubCamera) BinX() int32                        { return 1 }
func (c *stubCamera) BinY() int32                        { return 1 }
func (c *stubCamera) SetBinX(int32) error                { return nil }
func (c *stubCamera) SetBinY(int32) error                { return nil }
func (c *stubCamera) CameraXSize() int32                 { return 100 }
func (c *stubCamera) CameraYSize() int32                 { return 100 }
func (c *stubCamera) MaxBinX() int32                     { return 4 }
func (c *stubCamera) MaxBinY() int32                     { return 4 }
func (c *stubCamera) StartX() int32                      { return 0 }
func (c *stubCamera) StartY() int32                      { return 0 }
func (c *stubCamera) SetStartX(int32) error              { return nil }
func (c *stubCamera) SetStartY(int32) error              { return nil }
func (c *stubCamera) NumX() int32                        { return 100 }
func (c *stubCamera) NumY() int32                        { return 100 }
func (c *stubCamera) SetNumX(int32) error                { return nil }
func (c *stubCamera) SetNumY(int32) error                { return nil }
func (c *stubCamera) MaxADU() int32                      { return 65535 }
func (c *stubCamera) FullWellCapacity() float64           { return 0 }
func (c *stubCamera) ElectronsPerADU() float64            { return 0 }
func (c *stubCamera) PixelSizeX() float64                 { return 0 }
func (c *stubCamera) PixelSizeY() float64                 { return 0 }
func (c *stubCamera) HasShutter() bool                    { return false }
func (c *stubCamera) CanAbortExposure() bool               { return true }
func (c *stubCamera) CanStopExposure() bool                { return true }
func (c *stubCamera) CanAsymmetricBin() bool               { return false }
func (c *stubCamera) CanFastReadout() bool                 { return false }
func (c *stubCamera) CanPulseGuide() bool                  { return false }
func (c *stubCamera) CanGetCoolerPower() bool               { return false }
func (c *stubCamera) CanSetCCDTemperature() bool            { return false }
func (c *stubCamera) FastReadout() bool                     { return false }
func (c *stubCamera) SetFastReadout(bool) error              { return nil }
func (c *stubCamera) IsPulseGuiding() bool                    { return false }
func (c *stubCamera) SensorName() string                      { return "stub" }
func (c *stubCamera) SensorType() registry.SensorType          { return registry.SensorMonochrome }
func (c *stubCamera) BayerOffsetX() (int32, error)              { return 0, nil }
func (c *stubCamera) BayerOffsetY() (int32, error)              { return 0, nil }
func (c *stubCamera) ReadoutMode() int32                        { return 0 }
func (c *stubCamera) SetReadoutMode(int32) error                { return nil }
func (c *stubCamera) ReadoutModes() []string                    { return []string{"Normal"} }
func (c *stubCamera) Gain() (float64, error)                    { return 0, nil }
func (c *stubCamera) SetGain(float64) error                     { return nil }
func (c *stubCamera) GainMin() (float64, error)                 { return 0, nil }
func (c *stubCamera) GainMax() (float64, error)                  { return 0, nil }
func (c *stubCamera) Gains() ([]string, error)                   { return nil, nil }
func (c *stubCamera) Offset() (float64, error)                   { return 0, nil }
func (c *stubCamera) SetOffset(float64) error                    { return nil }
func (c *stubCamera) OffsetMin() (float64, error)                { return 0, nil }
func (c *stubCamera) OffsetMax() (float64, error)                { return 0, nil }
func (c *stubCamera) Offsets() ([]string, error)                 { return nil, nil }
func (c *stubCamera) ExposureMin() float64                       { return 0 }
func (c *stubCamera) ExposureMax() float64                       { return 3600 }
func (c *stubCamera) ExposureResolution() float64                { return 0.001 }
func (c *stubCamera) CoolerOn() bool                              { return false }
func (c *stubCamera) SetCoolerOn(bool) error                      { return nil }
func (c *stubCamera) CoolerPower() float64                        { return 0 }
func (c *stubCamera) CCDTemperature() float64                     { return 0 }
func (c *stubCamera) HeatSinkTemperature() float64                { return 0 }
func (c *stubCamera) SetCCDTemperature() float64                  { return 0 }
func (c *stubCamera) SetSetCCDTemperature(float64) error          { return nil }
func (c *stubCamera) StartExposure(float64, bool) error           { return nil }
func (c *stubCamera) StopExposure() error                          { return nil }
func (c *stubCamera) AbortExposure() error                         { return nil }
func (c *stubCamera) ImageReady() bool                              { return c.imageReady }
func (c *stubCamera) PercentCompleted() (int32, error)              { return 100, nil }
func (c *stubCamera) LastExposureDuration() (float64, error)        { return 1, nil }
func (c *stubCamera) LastExposureStartTime() (time.Time, error)     { return time.Time{}, nil }
func (c *stubCamera) ImageArray() ([][]int32, error)                { return c.pixels, nil }
func (c *stubCamera) ImageArrayVariant() string                     { return c.variant }
func (c *stubCamera) FilterWheel() (registry.FilterWheel, bool)     { return nil, false }

func registryOutOfRange(idx int32) error {
	return alpacaerr.InvalidValuef("channel %d is out of range", idx)
}

// stubTelescope is a minimal Telescope used to exercise
// dispatch_telescope.go.
type stubTelescope struct {
	stubCommon
	siteLat       float64
	haveSiteLat   bool
	utc           time.Time
	pulseGuiding  bool
	lastDirection int32
	lastDuration  int32
}

func (t *stubTelescope) Tracking() bool                          { return false }
func (t *stubTelescope) SetTracking(bool) error                  { return nil }
func (t *stubTelescope) TrackingRate() registry.TrackingRate     { return registry.TrackSidereal }
func (t *stubTelescope) SetTrackingRate(registry.TrackingRate) error { return nil }
func (t *stubTelescope) GuideRateDeclination() float64           { return 0.5 }
func (t *stubTelescope) SetGuideRateDeclination(float64) error   { return nil }
func (t *stubTelescope) GuideRateRightAscension() float64        { return 0.5 }
func (t *stubTelescope) SetGuideRateRightAscension(float64) error { return nil }
func (t *stubTelescope) RightAscension() float64                 { return 0 }
func (t *stubTelescope) Declination() float64                    { return 0 }
func (t *stubTelescope) Altitude() float64                       { return 0 }
func (t *stubTelescope) Azimuth() float64                        { return 0 }
func (t *stubTelescope) TargetRightAscension() (float64, error) {
	return 0, alpacaerr.InvalidOperationf("no target set")
}
func (t *stubTelescope) SetTargetRightAscension(float64) error { return nil }
func (t *stubTelescope) TargetDeclination() (float64, error) {
	return 0, alpacaerr.InvalidOperationf("no target set")
}
func (t *stubTelescope) SetTargetDeclination(float64) error { return nil }
func (t *stubTelescope) SiteLatitude() (float64, error)     { return t.siteLat, nil }
func (t *stubTelescope) SetSiteLatitude(v float64) error {
	t.siteLat = v
	t.haveSiteLat = true
	return nil
}
func (t *stubTelescope) SiteLongitude() (float64, error)      { return 0, nil }
func (t *stubTelescope) SetSiteLongitude(float64) error       { return nil }
func (t *stubTelescope) SiteElevation() (float64, error)      { return 0, nil }
func (t *stubTelescope) SetSiteElevation(float64) error       { return nil }
func (t *stubTelescope) SideOfPier() registry.SideOfPier      { return registry.PierUnknown }
func (t *stubTelescope) Slewing() bool                        { return false }
func (t *stubTelescope) AtPark() bool                         { return false }
func (t *stubTelescope) AtHome() bool                         { return false }
func (t *stubTelescope) SlewToCoordinates(float64, float64) error      { return nil }
func (t *stubTelescope) SlewToCoordinatesAsync(float64, float64) error { return nil }
func (t *stubTelescope) SlewToTarget() error                           { return nil }
func (t *stubTelescope) SlewToTargetAsync() error                      { return nil }
func (t *stubTelescope) SyncToCoordinates(float64, float64) error      { return nil }
func (t *stubTelescope) AbortSlew() error                              { return nil }
func (t *stubTelescope) FindHome() error                               { return nil }
func (t *stubTelescope) Park() error                                   { return nil }
func (t *stubTelescope) Unpark() error                                 { return nil }
func (t *stubTelescope) MoveAxis(int32, float64) error                 { return nil }
func (t *stubTelescope) PulseGuide(direction, duration int32) error {
	t.lastDirection, t.lastDuration = direction, duration
	t.pulseGuiding = true
	return nil
}
func (t *stubTelescope) IsPulseGuiding() bool { return t.pulseGuiding }
func (t *stubTelescope) SetUTCDateTime(ts time.Time) error {
	t.utc = ts
	return nil
}
func (t *stubTelescope) UTCDate() (time.Time, error) { return t.utc, nil }
