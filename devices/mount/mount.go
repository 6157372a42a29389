package mount

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
	"github.com/nasa-jpl/alpacahub/serialport"
)

const (
	readTimeout = 2 * time.Second
	pollPeriod  = 100 * time.Millisecond
)

// directions for :Mg pulse guide and :Me/:Mn/:Mw/:Ms moves.
const (
	dirEast  = 'e'
	dirWest  = 'w'
	dirNorth = 'n'
	dirSouth = 's'
)

// maxRateSidereal is the ceiling of the :Rv move-at-rate field, in
// multiples of the sidereal rate.
const maxRateSidereal = 1440.0

// Config names the serial device the mount is attached to and the
// driver's cross-meridian policy. It carries no site location; the
// cached site latitude/longitude are read back from the mount on
// connect.
type Config struct {
	Name     string
	UniqueID string

	PortName string
	Baud     int

	// PerformMeridianFlip, ContinueTrackingAfterMeridian, and
	// MeridianLimitAngleDeg are driver-internal cross-meridian policy,
	// grounded on zwo_am5_commands.hpp's cmd_set_act_of_crossing_meridian:
	// not ASCOM properties, they're consulted by the slew/goto path and
	// written to the mount as a best-effort command on connect.
	PerformMeridianFlip           bool
	ContinueTrackingAfterMeridian bool
	MeridianLimitAngleDeg         float64

	// Log receives connect-time probe warnings. A nil Log is replaced
	// with a no-op logger.
	Log *zap.Logger
}

// Mount drives an equatorial mount speaking the fixed-width ASCII
// protocol of spec.md §4.4. It holds no background poller of its own --
// unlike the focuser/rotator/filterwheel/switch family, every mount
// query is synchronous and on-demand, matching the original telescope
// driver's request/response shape. mu guards the cached state fields
// touched by concurrent HTTP handlers and the pulse-guide goroutine; it
// is never held across serial I/O, which serializes on the port's own
// mutex.
type Mount struct {
	cfg Config

	mu        sync.Mutex
	port      *serialport.Port
	connected bool

	targetRA, targetDec         float64
	haveTargetRA, haveTargetDec bool

	trackingRate              registry.TrackingRate
	guideRateRA, guideRateDec float64

	siteLat, siteLon, siteElev float64

	slewing             bool
	parked              bool
	isPulseGuiding      bool
	pendingMeridianStop bool

	// sleep is time.Sleep and timeout is the per-exchange read timeout,
	// both replaceable so the pulse-guide chunking and tracking-retry
	// paths can be exercised without waiting out real hardware delays.
	sleep   func(time.Duration)
	timeout time.Duration
}

// New constructs a Mount. The serial port is opened by SetConnected,
// matching the lifecycle every driver on this hub follows.
func New(cfg Config) *Mount {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Mount{cfg: cfg, guideRateRA: 0.5, guideRateDec: 0.5, sleep: time.Sleep, timeout: readTimeout}
}

func (m *Mount) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mount) SetConnected(connected bool) error {
	m.mu.Lock()
	if connected == m.connected {
		m.mu.Unlock()
		return nil
	}
	if !connected {
		if m.port != nil {
			p := m.port
			m.port = nil
			m.connected = false
			m.mu.Unlock()
			_ = p.Close()
			return nil
		}
		m.connected = false
		m.mu.Unlock()
		return nil
	}

	p, err := serialport.Open(serialport.Config{Name: m.cfg.PortName, Baud: m.cfg.Baud})
	if err != nil {
		m.mu.Unlock()
		return alpacaerr.DriverErrorf("open %s: %v", m.cfg.PortName, err)
	}
	m.port = p
	m.connected = true
	m.mu.Unlock()

	if err := m.writeClockToMount(time.Now()); err != nil {
		m.mu.Lock()
		m.port = nil
		m.connected = false
		m.mu.Unlock()
		_ = p.Close()
		return err
	}
	m.probeEquatorialMode()
	m.applyMeridianFlipPolicy()
	m.readSiteFromMount()
	return nil
}

func (m *Mount) Description() string        { return m.cfg.Name }
func (m *Mount) DriverInfo() string         { return "alpacahub mount driver" }
func (m *Mount) DriverVersion() string      { return "1.0" }
func (m *Mount) InterfaceVersion() int32    { return 3 }
func (m *Mount) Name() string               { return m.cfg.Name }
func (m *Mount) UniqueID() string           { return m.cfg.UniqueID }
func (m *Mount) SupportedActions() []string { return nil }

// send writes cmd and reads back a '#'-terminated response. The state
// mutex is released before touching the port; the port's own mutex
// serializes the wire exchange.
func (m *Mount) send(cmd string) (string, error) {
	m.mu.Lock()
	port := m.port
	timeout := m.timeout
	m.mu.Unlock()
	if port == nil {
		return "", alpacaerr.NotConnectedf("mount is not connected")
	}
	if err := port.Write([]byte(cmd)); err != nil {
		return "", alpacaerr.DriverErrorf("write %q: %v", cmd, err)
	}
	resp, err := port.ReadUntil('#', timeout)
	if err != nil {
		return "", alpacaerr.DriverErrorf("read response to %q: %v", cmd, err)
	}
	return string(resp), nil
}

// sendExpectAck writes cmd and requires the standard single-digit "1"
// acknowledgement, as spec.md §4.4's UTC/timezone write sequence does
// for :SG, :SC, :SL.
func (m *Mount) sendExpectAck(cmd string) error {
	resp, err := m.send(cmd)
	if err != nil {
		return err
	}
	n, err := parseStandardResponse(resp)
	if err != nil {
		return err
	}
	if n != 1 {
		return alpacaerr.DriverErrorf("mount rejected %q", cmd)
	}
	return nil
}

// writeClockToMount writes :SG, :SC, :SL in that order, applying the
// timezone-inversion and DST quirks, and verifying each acknowledgement
// (spec.md §4.4 "UTC and timezone").
func (m *Mount) writeClockToMount(now time.Time) error {
	sign, hh, mm, dstActive := utcOffsetQuirk(now)
	if err := m.sendExpectAck(cmdSetTimezone(sign, hh, mm)); err != nil {
		return err
	}
	local := localSendTime(now, dstActive)
	if err := m.sendExpectAck(cmdSetDate(int(local.Month()), local.Day(), local.Year())); err != nil {
		return err
	}
	if err := m.sendExpectAck(cmdSetTime(local.Hour(), local.Minute(), local.Second())); err != nil {
		return err
	}
	return nil
}

// probeEquatorialMode writes the ":AP#" switch-to-equatorial command once
// on connect. Many mounts boot already in whichever alignment mode they
// were last left in and never reply to this command at all, so a missing
// or malformed response is logged and otherwise ignored rather than
// failing the connect (spec.md §4.3's opt-in silent mode).
func (m *Mount) probeEquatorialMode() {
	m.mu.Lock()
	port := m.port
	timeout := m.timeout
	m.mu.Unlock()
	if port == nil {
		return
	}
	if err := port.Write([]byte(cmdSwitchToEquatorialMode)); err != nil {
		m.cfg.Log.Warn("equatorial-mode probe write failed", zap.String("mount", m.cfg.Name), zap.Error(err))
		return
	}
	if _, err := port.ReadUntilOrSilence('#', timeout); err != nil {
		m.cfg.Log.Warn("equatorial-mode probe did not complete", zap.String("mount", m.cfg.Name), zap.Error(err))
	}
}

// applyMeridianFlipPolicy writes the configured cross-meridian behavior
// to the mount. A mount that doesn't recognize the command still has the
// policy enforced client-side (willCrossMeridianBeyondLimit), so a
// rejected or missing acknowledgement here is logged, not fatal.
func (m *Mount) applyMeridianFlipPolicy() {
	cmd := cmdSetMeridianFlipPolicy(m.cfg.PerformMeridianFlip, m.cfg.ContinueTrackingAfterMeridian, m.cfg.MeridianLimitAngleDeg)
	if err := m.sendExpectAck(cmd); err != nil {
		m.cfg.Log.Warn("mount did not acknowledge meridian-flip policy", zap.String("mount", m.cfg.Name), zap.Error(err))
	}
}

// readSiteFromMount seeds the cached site latitude/longitude from the
// hardware, reversing the longitude sign quirk on the way in. Best
// effort: a mount with no stored site just leaves the cache at zero.
func (m *Mount) readSiteFromMount() {
	if resp, err := m.send(cmdGetLatitude); err == nil {
		if d, perr := parseSDDMMSS(resp); perr == nil {
			m.mu.Lock()
			m.siteLat = d.toDecimal()
			m.mu.Unlock()
		} else {
			m.cfg.Log.Warn("could not parse stored site latitude", zap.String("mount", m.cfg.Name), zap.Error(perr))
		}
	}
	if resp, err := m.send(cmdGetLongitude); err == nil {
		if d, perr := parseSDDDMMSS(resp); perr == nil {
			m.mu.Lock()
			m.siteLon = longitudeQuirk(d.toDecimal())
			m.mu.Unlock()
		} else {
			m.cfg.Log.Warn("could not parse stored site longitude", zap.String("mount", m.cfg.Name), zap.Error(perr))
		}
	}
}

// willCrossMeridianBeyondLimit reports whether slewing from the mount's
// current right ascension to targetRA carries the telescope more than
// MeridianLimitAngleDeg past the meridian. The mount's own :GR reading
// stands in for local sidereal time since this driver tracks no
// independent ephemeris.
func (m *Mount) willCrossMeridianBeyondLimit(targetRA float64) bool {
	if m.cfg.MeridianLimitAngleDeg <= 0 {
		return false
	}
	delta := targetRA - m.RightAscension()
	for delta > 12 {
		delta -= 24
	}
	for delta < -12 {
		delta += 24
	}
	limitHours := m.cfg.MeridianLimitAngleDeg / 15.0
	return delta > limitHours || delta < -limitHours
}

// crossesMeridian is willCrossMeridianBeyondLimit's zero-limit case: any
// nonzero hour-angle delta counts as a meridian crossing, used to decide
// whether to honor ContinueTrackingAfterMeridian once a slew completes.
func (m *Mount) crossesMeridian(targetRA float64) bool {
	delta := targetRA - m.RightAscension()
	for delta > 12 {
		delta -= 24
	}
	for delta < -12 {
		delta += 24
	}
	return delta > 0.01 || delta < -0.01
}

// requireUnparked is the gate spec.md §7 puts on every motion command:
// acting on a parked mount is InvalidOperation.
func (m *Mount) requireUnparked() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parked {
		return alpacaerr.InvalidOperationf("mount is parked")
	}
	return nil
}

// --- Tracking ---

func (m *Mount) Tracking() bool {
	resp, err := m.send(cmdGetTrackingStatus)
	if err != nil {
		return false
	}
	n, err := parseStandardResponse(resp)
	return err == nil && n == 1
}

// SetTracking implements spec.md §4.4's "Tracking-state caching": the
// mount occasionally acknowledges tracking commands with a transient
// error while nevertheless transitioning correctly, so a reported
// failure is verified via get_tracking_status and trusted over the
// acknowledgement. A true mismatch gets at most one retry, after a 2s
// backoff, before surfacing DriverError (spec.md §7).
func (m *Mount) SetTracking(on bool) error {
	if on {
		if err := m.requireUnparked(); err != nil {
			return err
		}
	}
	cmd := cmdStopTracking
	if on {
		cmd = cmdStartTracking
	}
	if _, err := m.send(cmd); err == nil {
		return nil
	}
	if m.Tracking() == on {
		return nil
	}
	m.sleep(2 * time.Second)
	if _, err := m.send(cmd); err == nil {
		return nil
	}
	if m.Tracking() != on {
		return alpacaerr.DriverErrorf("mount did not transition tracking to %v", on)
	}
	return nil
}

func (m *Mount) TrackingRate() registry.TrackingRate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackingRate
}

func (m *Mount) SetTrackingRate(r registry.TrackingRate) error {
	var cmd string
	switch r {
	case registry.TrackSidereal:
		cmd = cmdSetRateSidereal
	case registry.TrackSolar:
		cmd = cmdSetRateSolar
	case registry.TrackLunar:
		cmd = cmdSetRateLunar
	case registry.TrackKing:
		cmd = cmdSetRateKing
	default:
		return alpacaerr.InvalidValuef("unsupported tracking rate %d", r)
	}
	if _, err := m.send(cmd); err != nil {
		return err
	}
	m.mu.Lock()
	m.trackingRate = r
	m.mu.Unlock()
	return nil
}

func (m *Mount) GuideRateDeclination() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guideRateDec
}

func (m *Mount) SetGuideRateDeclination(v float64) error {
	if _, err := m.send(cmdSetGuideRate(v)); err != nil {
		return err
	}
	m.mu.Lock()
	m.guideRateDec = v
	m.mu.Unlock()
	return nil
}

func (m *Mount) GuideRateRightAscension() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guideRateRA
}

func (m *Mount) SetGuideRateRightAscension(v float64) error {
	if _, err := m.send(cmdSetGuideRate(v)); err != nil {
		return err
	}
	m.mu.Lock()
	m.guideRateRA = v
	m.mu.Unlock()
	return nil
}

// --- Position ---

func (m *Mount) RightAscension() float64 {
	resp, err := m.send(cmdGetRA)
	if err != nil {
		return 0
	}
	h, err := parseHMS(resp)
	if err != nil {
		return 0
	}
	return h.toDecimal()
}

func (m *Mount) Declination() float64 {
	resp, err := m.send(cmdGetDec)
	if err != nil {
		return 0
	}
	d, err := parseSDDMMSS(resp)
	if err != nil {
		return 0
	}
	return d.toDecimal()
}

func (m *Mount) Altitude() float64 {
	resp, err := m.send(cmdGetAltitude)
	if err != nil {
		return 0
	}
	d, err := parseSDDMMSS(resp)
	if err != nil {
		return 0
	}
	return d.toDecimal()
}

func (m *Mount) Azimuth() float64 {
	resp, err := m.send(cmdGetAzimuth)
	if err != nil {
		return 0
	}
	d, err := parseDDMMSS(resp)
	if err != nil {
		return 0
	}
	return d.toDecimal()
}

func (m *Mount) TargetRightAscension() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.haveTargetRA {
		return 0, alpacaerr.InvalidOperationf("no target right ascension has been set")
	}
	return m.targetRA, nil
}

func (m *Mount) SetTargetRightAscension(v float64) error {
	if v < 0 || v >= 24 {
		return alpacaerr.InvalidValuef("right ascension must be in [0, 24)")
	}
	h := hmsFromDecimal(v)
	if err := m.sendExpectAck(cmdSetTargetRA(h.hh, h.mm, h.ss)); err != nil {
		return err
	}
	m.mu.Lock()
	m.targetRA = v
	m.haveTargetRA = true
	m.mu.Unlock()
	return nil
}

func (m *Mount) TargetDeclination() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.haveTargetDec {
		return 0, alpacaerr.InvalidOperationf("no target declination has been set")
	}
	return m.targetDec, nil
}

func (m *Mount) SetTargetDeclination(v float64) error {
	if v < -90 || v > 90 {
		return alpacaerr.InvalidValuef("declination must be in [-90, 90]")
	}
	d := sdmsFromDecimal(v)
	if err := m.sendExpectAck(cmdSetTargetDec(d.sign, d.dd, d.mm, d.ss)); err != nil {
		return err
	}
	m.mu.Lock()
	m.targetDec = v
	m.haveTargetDec = true
	m.mu.Unlock()
	return nil
}

// --- Site ---

func (m *Mount) SiteLatitude() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.siteLat, nil
}

func (m *Mount) SetSiteLatitude(v float64) error {
	if v < -90 || v > 90 {
		return alpacaerr.InvalidValuef("latitude must be in [-90, 90]")
	}
	d := sdmsFromDecimal(v)
	if err := m.sendExpectAck(cmdSetLatitude(d.sign, d.dd, d.mm, d.ss)); err != nil {
		return err
	}
	m.mu.Lock()
	m.siteLat = v
	m.mu.Unlock()
	return nil
}

// SiteLongitude returns the cached civil-convention longitude. The sign
// inversion quirk lives at the wire boundary only: SetSiteLongitude
// negates on write, readSiteFromMount negates on read, and the cache in
// between always holds the value the client supplied.
func (m *Mount) SiteLongitude() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.siteLon, nil
}

func (m *Mount) SetSiteLongitude(v float64) error {
	if v < -180 || v > 180 {
		return alpacaerr.InvalidValuef("longitude must be in [-180, 180]")
	}
	d := sdmsFromDecimal(longitudeQuirk(v))
	if err := m.sendExpectAck(cmdSetLongitude(d.sign, d.dd, d.mm, d.ss)); err != nil {
		return err
	}
	m.mu.Lock()
	m.siteLon = v
	m.mu.Unlock()
	return nil
}

func (m *Mount) SiteElevation() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.siteElev, nil
}

func (m *Mount) SetSiteElevation(v float64) error {
	m.mu.Lock()
	m.siteElev = v
	m.mu.Unlock()
	return nil
}

func (m *Mount) SideOfPier() registry.SideOfPier { return registry.PierUnknown }

func (m *Mount) Slewing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slewing
}

func (m *Mount) AtPark() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parked
}

func (m *Mount) AtHome() bool { return false }

// --- Slewing ---

func (m *Mount) SlewToCoordinates(ra, dec float64) error {
	if err := m.SlewToCoordinatesAsync(ra, dec); err != nil {
		return err
	}
	return m.waitUntilStopped()
}

func (m *Mount) SlewToCoordinatesAsync(ra, dec float64) error {
	if ra < 0 || ra >= 24 {
		return alpacaerr.InvalidValuef("right ascension must be in [0, 24)")
	}
	if dec < -90 || dec > 90 {
		return alpacaerr.InvalidValuef("declination must be in [-90, 90]")
	}
	if err := m.requireUnparked(); err != nil {
		return err
	}
	if !m.cfg.PerformMeridianFlip && m.willCrossMeridianBeyondLimit(ra) {
		return alpacaerr.InvalidOperationf("slew to RA %.4f would cross the meridian beyond the configured limit and meridian flips are disabled", ra)
	}
	meridianStop := !m.cfg.ContinueTrackingAfterMeridian && m.crossesMeridian(ra)
	h := hmsFromDecimal(ra)
	d := sdmsFromDecimal(dec)
	resp, err := m.send(cmdSetAndGoto(h.hh, h.mm, h.ss, d.sign, d.dd, d.mm, d.ss))
	if err != nil {
		return err
	}
	n, err := parseStandardResponse(resp)
	if err != nil || n != 1 {
		return alpacaerr.DriverErrorf("mount rejected slew-to-coordinates")
	}
	m.mu.Lock()
	m.targetRA, m.targetDec = ra, dec
	m.haveTargetRA, m.haveTargetDec = true, true
	m.slewing = true
	m.pendingMeridianStop = meridianStop
	m.mu.Unlock()
	return nil
}

func (m *Mount) SlewToTarget() error {
	if err := m.SlewToTargetAsync(); err != nil {
		return err
	}
	return m.waitUntilStopped()
}

func (m *Mount) SlewToTargetAsync() error {
	m.mu.Lock()
	haveRA, haveDec := m.haveTargetRA, m.haveTargetDec
	targetRA := m.targetRA
	m.mu.Unlock()
	if !haveRA || !haveDec {
		return alpacaerr.InvalidOperationf("target right ascension/declination have not been set")
	}
	if err := m.requireUnparked(); err != nil {
		return err
	}
	if !m.cfg.PerformMeridianFlip && m.willCrossMeridianBeyondLimit(targetRA) {
		return alpacaerr.InvalidOperationf("slew to the current target would cross the meridian beyond the configured limit and meridian flips are disabled")
	}
	meridianStop := !m.cfg.ContinueTrackingAfterMeridian && m.crossesMeridian(targetRA)
	resp, err := m.send(cmdGoto)
	if err != nil {
		return err
	}
	n, err := parseStandardResponse(resp)
	if err != nil || n != 1 {
		return alpacaerr.DriverErrorf("mount rejected goto")
	}
	m.mu.Lock()
	m.slewing = true
	m.pendingMeridianStop = meridianStop
	m.mu.Unlock()
	return nil
}

func (m *Mount) SyncToCoordinates(ra, dec float64) error {
	if err := m.requireUnparked(); err != nil {
		return err
	}
	if err := m.SetTargetRightAscension(ra); err != nil {
		return err
	}
	if err := m.SetTargetDeclination(dec); err != nil {
		return err
	}
	if _, err := m.send(cmdSync); err != nil {
		return err
	}
	return nil
}

func (m *Mount) AbortSlew() error {
	if _, err := m.send(cmdStopMoving); err != nil {
		return err
	}
	m.mu.Lock()
	m.slewing = false
	m.pendingMeridianStop = false
	m.mu.Unlock()
	return nil
}

// waitUntilStopped polls the mount's status every 100ms until motion is
// no longer reported, implementing the blocking form of a slew (spec.md
// §4.4).
func (m *Mount) waitUntilStopped() error {
	for {
		resp, err := m.send(cmdGetStatus)
		if err != nil {
			return err
		}
		if !statusIndicatesMotion(resp) {
			m.mu.Lock()
			m.slewing = false
			meridianStop := m.pendingMeridianStop
			m.pendingMeridianStop = false
			m.mu.Unlock()
			if meridianStop {
				_ = m.SetTracking(false)
			}
			return nil
		}
		m.sleep(pollPeriod)
	}
}

// statusIndicatesMotion is a minimal reading of the :GU status string:
// an 'N' anywhere in it means no slew is in progress, and any other
// non-empty reply (other than a bare "#") counts as motion. The full nNG... field layout documented alongside
// cmd_get_status is otherwise opaque to this driver.
func statusIndicatesMotion(status string) bool {
	for _, r := range status {
		if r == 'N' {
			return false
		}
	}
	return len(status) > 0 && status != "#"
}

func (m *Mount) FindHome() error {
	if err := m.requireUnparked(); err != nil {
		return err
	}
	if _, err := m.send(cmdHomePosition); err != nil {
		return err
	}
	return m.waitUntilStopped()
}

// Park slews to the park position, waits for motion to stop, and marks
// the mount parked; every motion command refuses until Unpark.
func (m *Mount) Park() error {
	m.mu.Lock()
	if m.parked {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	if _, err := m.send(cmdPark); err != nil {
		return err
	}
	if err := m.waitUntilStopped(); err != nil {
		return err
	}
	m.mu.Lock()
	m.parked = true
	m.mu.Unlock()
	return nil
}

func (m *Mount) Unpark() error {
	resp, err := m.send(cmdRestoreParked)
	if err != nil {
		return err
	}
	n, err := parseStandardResponse(resp)
	if err != nil || n != 1 {
		return alpacaerr.DriverErrorf("mount refused to unpark")
	}
	m.mu.Lock()
	m.parked = false
	m.mu.Unlock()
	return nil
}

// MoveAxis converts rate to the mount's "x sidereal" encoding (divide
// by 0.0042) and issues the directional start/stop; rate 0 stops the
// axis (spec.md §4.4 "Move-axis"). The encoded rate is validated
// against the :Rv field's 1440.00 ceiling before anything touches the
// port.
func (m *Mount) MoveAxis(axis int32, rateDegPerSec float64) error {
	var startCmd, stopCmd string
	switch axis {
	case 0: // primary/RA axis
		if rateDegPerSec >= 0 {
			startCmd, stopCmd = cmdMoveEast, cmdStopEast
		} else {
			startCmd, stopCmd = cmdMoveWest, cmdStopWest
		}
	case 1: // secondary/Dec axis
		if rateDegPerSec >= 0 {
			startCmd, stopCmd = cmdMoveNorth, cmdStopNorth
		} else {
			startCmd, stopCmd = cmdMoveSouth, cmdStopSouth
		}
	default:
		return alpacaerr.InvalidValuef("unsupported axis %d", axis)
	}

	if rateDegPerSec == 0 {
		_, err := m.send(stopCmd)
		return err
	}

	if err := m.requireUnparked(); err != nil {
		return err
	}

	rate := rateDegPerSec / 0.0042
	if rate < 0 {
		rate = -rate
	}
	if rate > maxRateSidereal {
		return alpacaerr.InvalidValuef("rate %.4f deg/s exceeds the mount's maximum of %.4f deg/s", rateDegPerSec, maxRateSidereal*0.0042)
	}
	if _, err := m.send(cmdMoveAtRate(rate)); err != nil {
		return err
	}
	_, err := m.send(startCmd)
	return err
}

// PulseGuide spawns a background task emitting one or more :Mg commands
// each capped at 3000 ms, sleeping the exact requested duration, and
// clearing is_pulse_guiding when finished (spec.md §4.4). Overlapping
// requests on the same axis are not serialized; opposite axes may
// overlap freely.
func (m *Mount) PulseGuide(direction int32, durationMs int32) error {
	dir, err := pulseGuideDirection(direction)
	if err != nil {
		return err
	}
	if durationMs < 0 {
		return alpacaerr.InvalidValuef("guide duration must be >= 0, got %d", durationMs)
	}
	if err := m.requireUnparked(); err != nil {
		return err
	}
	m.mu.Lock()
	m.isPulseGuiding = true
	m.mu.Unlock()
	go m.runPulseGuide(dir, durationMs)
	return nil
}

func (m *Mount) IsPulseGuiding() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isPulseGuiding
}

func pulseGuideDirection(direction int32) (byte, error) {
	switch direction {
	case 0:
		return dirNorth, nil
	case 1:
		return dirSouth, nil
	case 2:
		return dirEast, nil
	case 3:
		return dirWest, nil
	default:
		return 0, alpacaerr.InvalidValuef("unsupported guide direction %d", direction)
	}
}

func (m *Mount) runPulseGuide(dir byte, totalMs int32) {
	const maxChunk = 3000
	remaining := totalMs
	for remaining > 0 {
		chunk := remaining
		if chunk > maxChunk {
			chunk = maxChunk
		}
		_, _ = m.send(cmdPulseGuide(dir, int(chunk)))
		m.sleep(time.Duration(chunk) * time.Millisecond)
		remaining -= chunk
	}
	m.mu.Lock()
	m.isPulseGuiding = false
	m.mu.Unlock()
}

func (m *Mount) SetUTCDateTime(t time.Time) error {
	return m.writeClockToMount(t)
}

// UTCDate reads the mount's stored date, local time, and timezone offset
// back and reconstructs UTC, reversing the write-side sign/DST quirks
// (quirks.go).
func (m *Mount) UTCDate() (time.Time, error) {
	tzResp, err := m.send(cmdGetTimezone)
	if err != nil {
		return time.Time{}, err
	}
	sign, tzHH, tzMM, err := parseSignedHHMM(tzResp)
	if err != nil {
		return time.Time{}, err
	}
	dateResp, err := m.send(cmdGetDate)
	if err != nil {
		return time.Time{}, err
	}
	month, day, year, err := parseDate(dateResp)
	if err != nil {
		return time.Time{}, err
	}
	timeResp, err := m.send(cmdGetLocalTime)
	if err != nil {
		return time.Time{}, err
	}
	h, err := parseHMS(timeResp)
	if err != nil {
		return time.Time{}, err
	}
	return utcFromMountClock(year, month, day, h.hh, h.mm, h.ss, sign, tzHH, tzMM), nil
}
