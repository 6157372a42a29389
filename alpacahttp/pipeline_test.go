package alpacahttp

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
	"github.com/nasa-jpl/alpacahub/txcounter"
)

func newTestServer() (*Server, *registry.Registry) {
	reg := registry.New()
	s := &Server{
		Reg:                 reg,
		Counter:             txcounter.New(),
		ServerName:          "test hub",
		Manufacturer:        "test",
		ManufacturerVersion: "0.0.1",
		Location:            "bench",
	}
	return s, reg
}

func TestUnsupportedDeviceTypeIs400(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest("GET", "/api/v1/dome/0/connected", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, 400, rr.Code)
	assert.Contains(t, rr.Body.String(), "Unsupported device_type: dome")
}

func TestOutOfRangeIndexIs400(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryRotator, &stubRotator{stubCommon: stubCommon{name: "r0", connected: true}})
	req := httptest.NewRequest("GET", "/api/v1/rotator/5/connected", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, 400, rr.Code)
	assert.Contains(t, rr.Body.String(), "There is no rotator at 5")
}

func TestTransactionIDsIncreaseMonotonically(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryRotator, &stubRotator{stubCommon: stubCommon{name: "r0", connected: true}})

	var ids []uint32
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/rotator/0/connected", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)
		require.Equal(t, 200, rr.Code)

		var body Scaffold
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		ids = append(ids, body.ServerTransactionID)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])
}

func TestNotConnectedIsInBandDomainError(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryRotator, &stubRotator{stubCommon: stubCommon{name: "r0", connected: false}})

	req := httptest.NewRequest("GET", "/api/v1/rotator/0/position", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int(alpacaerr.NotConnected), body.ErrorNumber)
}

func TestPutConnectedRequiresLiteralTrueFalse(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryRotator, &stubRotator{stubCommon: stubCommon{name: "r0", connected: false}})

	req := httptest.NewRequest("PUT", "/api/v1/rotator/0/connected", strings.NewReader("Connected=yes"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEqual(t, 0, body.ErrorNumber)

	req2 := httptest.NewRequest("PUT", "/api/v1/rotator/0/connected", strings.NewReader("Connected=True"))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req2)

	require.Equal(t, 200, rr2.Code)
	var body2 Scaffold
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &body2))
	assert.Equal(t, 0, body2.ErrorNumber)
}

func TestImageBytesRoundTrip(t *testing.T) {
	pixels := [][]int32{
		{1, 2, 3},
		{4, 5, 6},
	}
	var buf strings.Builder
	err := writeImageBytes(&buf, Scaffold{ServerTransactionID: 7}, pixels, 16)
	require.NoError(t, err)

	hdr, got, err := readImageBytes(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), hdr.ServerTransactionID)
	assert.Equal(t, uint32(2), hdr.Dimension1)
	assert.Equal(t, uint32(3), hdr.Dimension2)
	assert.Equal(t, pixels, got)
}

func TestManagementConfiguredDevices(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryRotator, &stubRotator{stubCommon: stubCommon{name: "r0", connected: true}})

	req := httptest.NewRequest("GET", "/management/v1/configureddevices", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), "\"DeviceName\":\"r0\"")
}

func TestImageArrayJSONPathCarriesTypeAndRank(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryCamera, &stubCamera{
		stubCommon: stubCommon{name: "cam0", connected: true},
		imageReady: true,
		pixels:     [][]int32{{10, 20}, {30, 40}, {50, 60}, {70, 80}}, // 4 wide, 2 high
		variant:    "Int16",
	})

	req := httptest.NewRequest("GET", "/api/v1/camera/0/imagearray", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body struct {
		Type  int
		Rank  int
		Value [][]int32
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Type)
	assert.Equal(t, 2, body.Rank)
	require.Len(t, body.Value, 4)
	assert.Equal(t, []int32{10, 20}, body.Value[0])
}

func TestImageArrayBytesPathMatchesEnvelopeLayout(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryCamera, &stubCamera{
		stubCommon: stubCommon{name: "cam0", connected: true},
		imageReady: true,
		pixels:     [][]int32{{1, 2}, {3, 4}, {5, 6}, {7, 8}}, // 4 wide, 2 high
		variant:    "Int16",
	})

	req := httptest.NewRequest("GET", "/api/v1/camera/0/imagearray?ClientTransactionID=42", nil)
	req.Header.Set("Accept", "application/imagebytes")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	body := rr.Body.Bytes()
	require.Len(t, body, 44+4*2*2)

	readLE := func(off int) uint32 {
		return uint32(body[off]) | uint32(body[off+1])<<8 | uint32(body[off+2])<<16 | uint32(body[off+3])<<24
	}
	assert.Equal(t, uint32(1), readLE(0))   // MetadataVersion
	assert.Equal(t, uint32(42), readLE(8))  // ClientTransactionID
	assert.Equal(t, uint32(44), readLE(16)) // DataStart
	assert.Equal(t, uint32(2), readLE(28))  // Rank
	assert.Equal(t, uint32(4), readLE(32))  // Dimension1 = width
	assert.Equal(t, uint32(2), readLE(36))  // Dimension2 = height
	assert.Equal(t, uint32(0), readLE(40))  // Dimension3
}

func TestImageArrayNotReadyIsInvalidOperation(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryCamera, &stubCamera{
		stubCommon: stubCommon{name: "cam0", connected: true},
		imageReady: false,
	})

	req := httptest.NewRequest("GET", "/api/v1/camera/0/imagearray", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int(alpacaerr.InvalidOperation), body.ErrorNumber)
}

func TestTelescopeSiteLatitudeRoundTripsThroughDispatch(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryTelescope, &stubTelescope{stubCommon: stubCommon{name: "m0", connected: true}})

	req := httptest.NewRequest("PUT", "/api/v1/telescope/0/sitelatitude", strings.NewReader("SiteLatitude=30.561111"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	require.Equal(t, 200, rr.Code)
	var put Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &put))
	require.Equal(t, 0, put.ErrorNumber)

	req2 := httptest.NewRequest("GET", "/api/v1/telescope/0/sitelatitude", nil)
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req2)
	var get struct{ Value float64 }
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &get))
	assert.InDelta(t, 30.561111, get.Value, 1.0/3600)
}

func TestTelescopePutUTCDateParsesISO8601(t *testing.T) {
	s, reg := newTestServer()
	ts := &stubTelescope{stubCommon: stubCommon{name: "m0", connected: true}}
	reg.Add(registry.CategoryTelescope, ts)

	req := httptest.NewRequest("PUT", "/api/v1/telescope/0/utcdate", strings.NewReader("UTCDate=2026-08-01T12:00:00Z"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 0, body.ErrorNumber)
	assert.Equal(t, 2026, ts.utc.Year())

	req2 := httptest.NewRequest("PUT", "/api/v1/telescope/0/utcdate", strings.NewReader("UTCDate=not-a-date"))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req2)
	var body2 Scaffold
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &body2))
	assert.Equal(t, int(alpacaerr.InvalidValue), body2.ErrorNumber)
}

func TestActionWithoutAdvertisementIsNotImplemented(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategoryRotator, &stubRotator{stubCommon: stubCommon{name: "r0", connected: true}})

	req := httptest.NewRequest("PUT", "/api/v1/rotator/0/action", strings.NewReader("Action=calibrate"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int(alpacaerr.NotImplemented), body.ErrorNumber)
}

func TestSwitchReadOnlyWriteIsInvalidOperation(t *testing.T) {
	s, reg := newTestServer()
	reg.Add(registry.CategorySwitch, &stubSwitchBank{
		stubCommon: stubCommon{name: "sb0", connected: true},
		channels: []registry.SwitchChannel{
			{Name: "12V Rail", Writable: false, Kind: registry.SwitchVoltage},
		},
		values: []float64{12},
	})

	req := httptest.NewRequest("PUT", "/api/v1/switch/0/setswitchvalue", strings.NewReader("Id=0&Value=5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body Scaffold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int(alpacaerr.InvalidOperation), body.ErrorNumber)
}
