// Package registry implements the polymorphism-over-capability-sets
// design spec.md §9 calls for: tagged device variants keyed by category,
// each exposing a typed capability interface instead of a virtual base
// class a handler would have to downcast. A handler that addresses the
// wrong variant gets alpacaerr.InvalidOperation, never a nil pointer.
package registry

import "time"

// Category is one of the six device kinds this hub aggregates.
type Category string

// The fixed set of device categories spec.md §3 defines.
const (
	CategoryCamera       Category = "camera"
	CategoryTelescope    Category = "telescope"
	CategoryFocuser      Category = "focuser"
	CategoryFilterWheel  Category = "filterwheel"
	CategorySwitch       Category = "switch"
	CategoryRotator      Category = "rotator"
)

// Categories lists every known category in a stable order, used to build
// the /management/v1/configureddevices response and to validate incoming
// route segments.
var Categories = []Category{
	CategoryCamera, CategoryTelescope, CategoryFocuser,
	CategoryFilterWheel, CategorySwitch, CategoryRotator,
}

// Valid reports whether c names a known device category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// ActionHandler is implemented by devices that advertise custom actions
// in SupportedActions. The HTTP pipeline routes PUT /action to it for
// any action name the device lists; everything else stays
// NotImplemented.
type ActionHandler interface {
	Action(name, parameters string) (string, error)
}

// Common is the capability set every device handle carries regardless of
// category: spec.md §3's "Device handle (polymorphic)".
type Common interface {
	Connected() bool
	SetConnected(connected bool) error
	Description() string
	DriverInfo() string
	DriverVersion() string
	InterfaceVersion() int32
	Name() string
	UniqueID() string
	SupportedActions() []string
}

// CameraState is one of the camera exposure state machine's states
// (spec.md §3, §4.5).
type CameraState int

const (
	CameraIdle CameraState = iota
	CameraWaiting
	CameraExposing
	CameraReading
	CameraDownload
	CameraError
)

// SensorType mirrors the Alpaca SensorType enumeration. spec.md §9 Open
// Question (c): this hub always reports Monochrome regardless of the
// physical sensor, matching the preserved-quirk surface.
type SensorType int

const (
	SensorMonochrome SensorType = iota
	SensorColor
	SensorRGGB
	SensorCMYG
	SensorCMYG2
	SensorLRGB
)

// Camera is the capability set spec.md §3/§6 define for the camera
// category.
type Camera interface {
	Common

	CameraState() CameraState
	BinX() int32
	BinY() int32
	SetBinX(int32) error
	SetBinY(int32) error
	CameraXSize() int32
	CameraYSize() int32
	MaxBinX() int32
	MaxBinY() int32
	StartX() int32
	StartY() int32
	SetStartX(int32) error
	SetStartY(int32) error
	NumX() int32
	NumY() int32
	SetNumX(int32) error
	SetNumY(int32) error
	MaxADU() int32
	FullWellCapacity() float64
	ElectronsPerADU() float64
	PixelSizeX() float64
	PixelSizeY() float64
	HasShutter() bool
	CanAbortExposure() bool
	CanStopExposure() bool
	CanAsymmetricBin() bool
	CanFastReadout() bool
	CanPulseGuide() bool
	CanGetCoolerPower() bool
	CanSetCCDTemperature() bool
	FastReadout() bool
	SetFastReadout(bool) error
	IsPulseGuiding() bool
	SensorName() string
	SensorType() SensorType
	BayerOffsetX() (int32, error)
	BayerOffsetY() (int32, error)

	ReadoutMode() int32
	SetReadoutMode(int32) error
	ReadoutModes() []string

	Gain() (float64, error)
	SetGain(float64) error
	GainMin() (float64, error)
	GainMax() (float64, error)
	Gains() ([]string, error)

	Offset() (float64, error)
	SetOffset(float64) error
	OffsetMin() (float64, error)
	OffsetMax() (float64, error)
	Offsets() ([]string, error)

	ExposureMin() float64
	ExposureMax() float64
	ExposureResolution() float64

	CoolerOn() bool
	SetCoolerOn(bool) error
	CoolerPower() float64
	CCDTemperature() float64
	HeatSinkTemperature() float64
	SetCCDTemperature() float64
	SetSetCCDTemperature(float64) error

	StartExposure(duration float64, light bool) error
	StopExposure() error
	AbortExposure() error
	ImageReady() bool
	PercentCompleted() (int32, error)
	LastExposureDuration() (float64, error)
	LastExposureStartTime() (time.Time, error)
	ImageArray() ([][]int32, error)
	ImageArrayVariant() string // "Int32" or "Int16", per element width

	FilterWheel() (FilterWheel, bool)
}

// TrackingRate is the equatorial tracking rate enumeration (spec.md §3).
type TrackingRate int

const (
	TrackSidereal TrackingRate = iota
	TrackSolar
	TrackLunar
	TrackKing
)

// SideOfPier is which side of the mount the optical tube is on.
type SideOfPier int

const (
	PierEast SideOfPier = iota
	PierWest
	PierUnknown
)

// Telescope is the capability set for the equatorial mount category.
type Telescope interface {
	Common

	Tracking() bool
	SetTracking(bool) error
	TrackingRate() TrackingRate
	SetTrackingRate(TrackingRate) error
	GuideRateDeclination() float64
	SetGuideRateDeclination(float64) error
	GuideRateRightAscension() float64
	SetGuideRateRightAscension(float64) error

	RightAscension() float64
	Declination() float64
	Altitude() float64
	Azimuth() float64

	TargetRightAscension() (float64, error)
	SetTargetRightAscension(float64) error
	TargetDeclination() (float64, error)
	SetTargetDeclination(float64) error

	SiteLatitude() (float64, error)
	SetSiteLatitude(float64) error
	SiteLongitude() (float64, error)
	SetSiteLongitude(float64) error
	SiteElevation() (float64, error)
	SetSiteElevation(float64) error

	SideOfPier() SideOfPier
	Slewing() bool
	AtPark() bool
	AtHome() bool

	SlewToCoordinates(ra, dec float64) error
	SlewToCoordinatesAsync(ra, dec float64) error
	SlewToTarget() error
	SlewToTargetAsync() error
	SyncToCoordinates(ra, dec float64) error
	AbortSlew() error

	FindHome() error
	Park() error
	Unpark() error

	MoveAxis(axis int32, rateDegPerSec float64) error
	PulseGuide(direction int32, durationMs int32) error
	IsPulseGuiding() bool

	SetUTCDateTime(t time.Time) error
	UTCDate() (time.Time, error)
}

// Focuser is the capability set for the focuser category.
type Focuser interface {
	Common

	Absolute() bool
	IsMoving() bool
	Position() int32
	Temperature() (float64, error)
	MaxStep() int32
	MaxIncrement() int32
	Backlash() int32
	SetBacklash(int32) error
	Move(position int32) error
	Halt() error
}

// Rotator is the capability set for the rotator category.
type Rotator interface {
	Common

	Position() float64
	MechanicalPosition() float64
	TargetPosition() float64
	IsMoving() bool
	Reversed() bool
	SetReversed(bool) error
	CanReverse() bool
	Move(relativePositionDeg float64) error
	MoveAbsolute(positionDeg float64) error
	MoveMechanical(positionDeg float64) error
	Halt() error
}

// FilterWheel is the capability set for the filterwheel category.
type FilterWheel interface {
	Common

	Position() int32
	SetPosition(int32) error
	Names() []string
	FocusOffsets() []int32
}

// SwitchKind is the semantic kind of a single switch-bank channel
// (spec.md §3).
type SwitchKind int

const (
	SwitchVoltage SwitchKind = iota
	SwitchCurrent
	SwitchPower
	SwitchTemperature
	SwitchHumidity
	SwitchDewPoint
	SwitchBooleanOutput
	SwitchPWM
	SwitchSelectableVoltage
	SwitchAutoDewFlag
	SwitchAggressiveness
	SwitchUptime
)

// SwitchChannel describes one channel of a power/dew-controller bank.
type SwitchChannel struct {
	Name        string
	Description string
	Readable    bool
	Writable    bool
	Kind        SwitchKind
	Min         float64
	Max         float64
	Step        float64
}

// SwitchBank is the capability set for the switch category.
type SwitchBank interface {
	Common

	MaxSwitch() int32
	ChannelInfo(idx int32) (SwitchChannel, error)
	GetSwitchValue(idx int32) (float64, error)
	SetSwitchValue(idx int32, value float64) error
	GetSwitch(idx int32) (bool, error)
	SetSwitch(idx int32, on bool) error
}
