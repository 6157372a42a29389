package mount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuildersProduceFixedWidthWireForms(t *testing.T) {
	assert.Equal(t, ":SC02/03/26#", cmdSetDate(2, 3, 2026))
	assert.Equal(t, ":SL04:05:06#", cmdSetTime(4, 5, 6))
	assert.Equal(t, ":SG+05:00#", cmdSetTimezone('+', 5, 0))
	assert.Equal(t, ":St+30*33:40#", cmdSetLatitude('+', 30, 33, 40))
	assert.Equal(t, ":Sg-120*00:00#", cmdSetLongitude('-', 120, 0, 0))
	assert.Equal(t, ":SMeq10:30:00&+45*00:00#", cmdSetAndGoto(10, 30, 0, '+', 45, 0, 0))
	assert.Equal(t, ":Mgw0500#", cmdPulseGuide(dirWest, 500))
	assert.Equal(t, ":Mge3000#", cmdPulseGuide(dirEast, 3000))
}

func TestMoveAtRateZeroPadsToTheFieldWidth(t *testing.T) {
	assert.Equal(t, ":Rv0000.00#", cmdMoveAtRate(0))
	assert.Equal(t, ":Rv0012.50#", cmdMoveAtRate(12.5))
	assert.Equal(t, ":Rv1440.00#", cmdMoveAtRate(1440))
}

func TestParseStandardResponseAcceptsBothAckShapes(t *testing.T) {
	n, err := parseStandardResponse("1#")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = parseStandardResponse("e5#")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = parseStandardResponse("garbage")
	require.Error(t, err)
}

func TestParseShapesDecodeFixedResponses(t *testing.T) {
	h, err := parseHMS("10:30:45#")
	require.NoError(t, err)
	assert.Equal(t, hms{10, 30, 45}, h)

	d, err := parseSDDMMSS("-05*15:30#")
	require.NoError(t, err)
	assert.InDelta(t, -5.258333, d.toDecimal(), 1e-5)

	d3, err := parseSDDDMMSS("+120*00:00#")
	require.NoError(t, err)
	assert.Equal(t, 120.0, d3.toDecimal())

	month, day, year, err := parseDate("07/15/26#")
	require.NoError(t, err)
	assert.Equal(t, 7, month)
	assert.Equal(t, 15, day)
	assert.Equal(t, 2026, year)

	sign, hh, mm, err := parseSignedHHMM("+05:30#")
	require.NoError(t, err)
	assert.Equal(t, byte('+'), sign)
	assert.Equal(t, 5, hh)
	assert.Equal(t, 30, mm)

	_, err = parseHMS("-05*15:30#")
	require.Error(t, err)
}

func TestSdmsFromDecimalCarriesSecondsIntoMinutesAndDegrees(t *testing.T) {
	d := sdmsFromDecimal(59.9999999)
	assert.Equal(t, byte('+'), d.sign)
	assert.Equal(t, 60, d.dd)
	assert.Equal(t, 0, d.mm)
	assert.Equal(t, 0, d.ss)

	d = sdmsFromDecimal(-29.99999)
	assert.Equal(t, byte('-'), d.sign)
	assert.Equal(t, 30, d.dd)
	assert.Equal(t, 0, d.mm)
	assert.Equal(t, 0, d.ss)
}

func TestHmsFromDecimalCarriesIntoMinutesAndHours(t *testing.T) {
	h := hmsFromDecimal(9.9999999)
	assert.Equal(t, hms{10, 0, 0}, h)
}

func TestCoordinateEncodeDecodeRoundTripWithinOneArcsecond(t *testing.T) {
	for _, v := range []float64{0, 30.561111, -30.561111, 89.999, -89.999, 45.5} {
		d := sdmsFromDecimal(v)
		got := d.toDecimal()
		assert.LessOrEqual(t, math.Abs(got-v), 1.0/3600, "value %v round-tripped to %v", v, got)
	}
	for _, v := range []float64{0, 12.345678, 23.999} {
		h := hmsFromDecimal(v)
		got := h.toDecimal()
		assert.LessOrEqual(t, math.Abs(got-v), 1.0/3600, "value %v round-tripped to %v", v, got)
	}
}
