package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCommon is the minimal Common implementation used to exercise the
// registry without pulling in a real driver package.
type stubCommon struct {
	name string
}

func (s stubCommon) Connected() bool              { return true }
func (s stubCommon) SetConnected(bool) error      { return nil }
func (s stubCommon) Description() string          { return "stub" }
func (s stubCommon) DriverInfo() string            { return "stub driver" }
func (s stubCommon) DriverVersion() string         { return "0.0.0" }
func (s stubCommon) InterfaceVersion() int32        { return 1 }
func (s stubCommon) Name() string                  { return s.name }
func (s stubCommon) UniqueID() string               { return "stub-" + s.name }
func (s stubCommon) SupportedActions() []string     { return nil }

// stubFocuser adds just enough to satisfy Focuser for the AsFocuser test.
type stubFocuser struct{ stubCommon }

func (s stubFocuser) Absolute() bool            { return true }
func (s stubFocuser) IsMoving() bool            { return false }
func (s stubFocuser) Position() int32           { return 0 }
func (s stubFocuser) Temperature() (float64, error) { return 0, nil }
func (s stubFocuser) MaxStep() int32            { return 10000 }
func (s stubFocuser) MaxIncrement() int32       { return 10000 }
func (s stubFocuser) Backlash() int32           { return 0 }
func (s stubFocuser) SetBacklash(int32) error   { return nil }
func (s stubFocuser) Move(int32) error          { return nil }
func (s stubFocuser) Halt() error               { return nil }

func TestAddAndGetStableIndex(t *testing.T) {
	r := New()
	i0 := r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "fA"}})
	i1 := r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "fB"}})
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)

	d, err := r.Get(CategoryFocuser, 1)
	require.NoError(t, err)
	assert.Equal(t, "fB", d.Name())
}

func TestGetOutOfRangeIsInvalidValue(t *testing.T) {
	r := New()
	r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "only"}})
	_, err := r.Get(CategoryFocuser, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "There is no focuser at 99")
}

func TestAsFocuserTypeAssertion(t *testing.T) {
	r := New()
	r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "f0"}})
	f, err := r.AsFocuser(0)
	require.NoError(t, err)
	assert.Equal(t, int32(0), f.Position())
}

func TestAsCameraOnWrongCategoryFailsIndexLookup(t *testing.T) {
	r := New()
	r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "f0"}})
	// Focuser isn't registered under camera, so the index lookup itself
	// fails first with the category's own InvalidValue.
	_, err := r.AsCamera(0)
	require.Error(t, err)
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	_, err := ParseCategory("dome")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported device_type: dome")
}

func TestParseCategoryAcceptsKnown(t *testing.T) {
	c, err := ParseCategory("camera")
	require.NoError(t, err)
	assert.Equal(t, CategoryCamera, c)
}

func TestParseIndexRejectsNonNumeric(t *testing.T) {
	_, err := ParseIndex("abc")
	require.Error(t, err)
}

func TestParseIndexRejectsNegative(t *testing.T) {
	_, err := ParseIndex("-1")
	require.Error(t, err)
}

func TestConfiguredDevicesEnumeratesAll(t *testing.T) {
	r := New()
	r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "f0"}})
	r.Add(CategoryFocuser, stubFocuser{stubCommon{name: "f1"}})
	devs := r.ConfiguredDevices()
	require.Len(t, devs, 2)
	assert.Equal(t, "focuser", devs[0].DeviceType)
	assert.Equal(t, 1, devs[1].DeviceNumber)
}
