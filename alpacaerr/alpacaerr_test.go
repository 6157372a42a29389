package alpacaerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	e := InvalidValuef("bin_x (%d) must equal bin_y (%d)", 2, 3)
	assert.Equal(t, InvalidValue, e.Code)
	assert.Contains(t, e.Error(), "bin_x (2) must equal bin_y (3)")
}

func TestAsWithAlpacaError(t *testing.T) {
	e := NotConnectedf("camera 0 is not connected")
	code, msg := As(e)
	assert.Equal(t, NotConnected, code)
	assert.Equal(t, "camera 0 is not connected", msg)
}

func TestAsWithForeignError(t *testing.T) {
	code, msg := As(errors.New("boom"))
	assert.Equal(t, UnspecifiedError, code)
	assert.Equal(t, "boom", msg)
}

func TestAsWithNil(t *testing.T) {
	code, msg := As(nil)
	assert.Equal(t, Code(0), code)
	assert.Equal(t, "", msg)
}
