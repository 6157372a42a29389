package registry

import (
	"strconv"
	"sync"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

// Registry is the typed collection of connected devices by category and
// index (spec.md §4.2). Index within a category is stable for the
// server's lifetime -- devices are appended, never removed or reordered,
// matching "Ownership & lifecycle" in spec.md §3.
type Registry struct {
	mu      sync.RWMutex
	devices map[Category][]Common
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{devices: make(map[Category][]Common)}
	for _, c := range Categories {
		r.devices[c] = nil
	}
	return r
}

// Add appends a device handle to its category and returns its stable
// index.
func (r *Registry) Add(cat Category, d Common) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[cat] = append(r.devices[cat], d)
	return len(r.devices[cat]) - 1
}

// Get returns the device handle at (cat, index), or an InvalidValue
// error matching spec.md §4.1's "rejects unknown category ... rejects
// ... out-of-range index" behavior (the category check happens earlier,
// in the HTTP pipeline; this handles the index bound).
func (r *Registry) Get(cat Category, index int) (Common, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.devices[cat]
	if index < 0 || index >= len(list) {
		return nil, alpacaerr.InvalidValuef("There is no %s at %d", cat, index)
	}
	return list[index], nil
}

// Count returns the number of devices registered under cat.
func (r *Registry) Count(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices[cat])
}

// ConfiguredDevice is one row of /management/v1/configureddevices.
type ConfiguredDevice struct {
	DeviceType   string `json:"DeviceType"`
	DeviceName   string `json:"DeviceName"`
	DeviceNumber int    `json:"DeviceNumber"`
	UniqueID     string `json:"UniqueID"`
}

// ConfiguredDevices enumerates every registered device across every
// category for the management API.
func (r *Registry) ConfiguredDevices() []ConfiguredDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ConfiguredDevice
	for _, cat := range Categories {
		for i, d := range r.devices[cat] {
			out = append(out, ConfiguredDevice{
				DeviceType:   string(cat),
				DeviceName:   d.Name(),
				DeviceNumber: i,
				UniqueID:     d.UniqueID(),
			})
		}
	}
	return out
}

// AsCamera fetches the device at (camera, index) and asserts it
// implements the Camera capability set. A category mismatch -- which
// can only happen if a caller bypasses the category constant -- is
// InvalidOperation, never a silent nil.
func (r *Registry) AsCamera(index int) (Camera, error) {
	d, err := r.Get(CategoryCamera, index)
	if err != nil {
		return nil, err
	}
	c, ok := d.(Camera)
	if !ok {
		return nil, alpacaerr.InvalidOperationf("device at camera/%d does not implement the camera capability set", index)
	}
	return c, nil
}

// AsTelescope fetches and asserts a Telescope handle.
func (r *Registry) AsTelescope(index int) (Telescope, error) {
	d, err := r.Get(CategoryTelescope, index)
	if err != nil {
		return nil, err
	}
	t, ok := d.(Telescope)
	if !ok {
		return nil, alpacaerr.InvalidOperationf("device at telescope/%d does not implement the telescope capability set", index)
	}
	return t, nil
}

// AsFocuser fetches and asserts a Focuser handle.
func (r *Registry) AsFocuser(index int) (Focuser, error) {
	d, err := r.Get(CategoryFocuser, index)
	if err != nil {
		return nil, err
	}
	f, ok := d.(Focuser)
	if !ok {
		return nil, alpacaerr.InvalidOperationf("device at focuser/%d does not implement the focuser capability set", index)
	}
	return f, nil
}

// AsRotator fetches and asserts a Rotator handle.
func (r *Registry) AsRotator(index int) (Rotator, error) {
	d, err := r.Get(CategoryRotator, index)
	if err != nil {
		return nil, err
	}
	rt, ok := d.(Rotator)
	if !ok {
		return nil, alpacaerr.InvalidOperationf("device at rotator/%d does not implement the rotator capability set", index)
	}
	return rt, nil
}

// AsFilterWheel fetches and asserts a FilterWheel handle.
func (r *Registry) AsFilterWheel(index int) (FilterWheel, error) {
	d, err := r.Get(CategoryFilterWheel, index)
	if err != nil {
		return nil, err
	}
	fw, ok := d.(FilterWheel)
	if !ok {
		return nil, alpacaerr.InvalidOperationf("device at filterwheel/%d does not implement the filterwheel capability set", index)
	}
	return fw, nil
}

// AsSwitchBank fetches and asserts a SwitchBank handle.
func (r *Registry) AsSwitchBank(index int) (SwitchBank, error) {
	d, err := r.Get(CategorySwitch, index)
	if err != nil {
		return nil, err
	}
	s, ok := d.(SwitchBank)
	if !ok {
		return nil, alpacaerr.InvalidOperationf("device at switch/%d does not implement the switch capability set", index)
	}
	return s, nil
}

// ParseCategory validates a route segment against the known categories,
// matching spec.md §4.1's literal "Unsupported device_type: ..." message.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", alpacaerr.InvalidValuef("Unsupported device_type: %s", s)
	}
	return c, nil
}

// ParseIndex validates a route segment as a non-negative device index.
func ParseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, alpacaerr.InvalidValuef("invalid device index: %s", s)
	}
	return idx, nil
}
