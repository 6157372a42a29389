package mount

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/alpacahub/serialport"
)

// scriptedConn answers a fixed set of full-command responses and records
// every write, letting a test script exactly what the mount would say to
// each command in sequence. queued responses, when present for a
// command, are consumed one per write before the static responses map is
// consulted, so a test can make the mount's answer change over time.
type scriptedConn struct {
	written   []string
	toRead    bytes.Buffer
	responses map[string]string
	queued    map[string][]string
}

func (s *scriptedConn) Write(p []byte) (int, error) {
	cmd := string(p)
	s.written = append(s.written, cmd)
	if q, ok := s.queued[cmd]; ok && len(q) > 0 {
		s.toRead.WriteString(q[0])
		s.queued[cmd] = q[1:]
		return len(p), nil
	}
	if resp, ok := s.responses[cmd]; ok {
		s.toRead.WriteString(resp)
	}
	return len(p), nil
}

func (s *scriptedConn) Read(p []byte) (int, error) {
	if s.toRead.Len() == 0 {
		return 0, io.EOF
	}
	return s.toRead.Read(p)
}

func (s *scriptedConn) Close() error { return nil }

func newTestMount(cfg Config, conn *scriptedConn) *Mount {
	m := New(cfg)
	m.port = serialport.NewForTesting(conn)
	m.connected = true
	return m
}

func TestWillCrossMeridianBeyondLimitUsesCurrentRAAsLSTStandIn(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":GR#": "10:00:00#"}}
	m := newTestMount(Config{MeridianLimitAngleDeg: 15}, conn) // 1 hour limit
	assert.False(t, m.willCrossMeridianBeyondLimit(10.5))
	assert.True(t, m.willCrossMeridianBeyondLimit(12.0))
}

func TestWillCrossMeridianBeyondLimitDisabledWhenLimitIsZero(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":GR#": "10:00:00#"}}
	m := newTestMount(Config{MeridianLimitAngleDeg: 0}, conn)
	assert.False(t, m.willCrossMeridianBeyondLimit(20))
}

func TestSlewToCoordinatesAsyncRejectsWhenFlipDisabledBeyondLimit(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":GR#": "10:00:00#"}}
	m := newTestMount(Config{PerformMeridianFlip: false, MeridianLimitAngleDeg: 15}, conn)
	err := m.SlewToCoordinatesAsync(12.0, 0)
	require.Error(t, err)
	assert.False(t, m.Slewing())
}

func TestSlewToCoordinatesAsyncAllowsWithinLimit(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{
		":GR#": "10:00:00#",
		":SMeq10:30:00&+00*00:00#": "1#",
	}}
	m := newTestMount(Config{PerformMeridianFlip: false, MeridianLimitAngleDeg: 15}, conn)
	err := m.SlewToCoordinatesAsync(10.5, 0)
	require.NoError(t, err)
	assert.True(t, m.Slewing())
}

func TestApplyMeridianFlipPolicyWritesFixedWidthCommand(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":SMF11020#": "1#"}}
	m := newTestMount(Config{PerformMeridianFlip: true, ContinueTrackingAfterMeridian: true, MeridianLimitAngleDeg: 20}, conn)
	m.applyMeridianFlipPolicy()
	require.Len(t, conn.written, 1)
	assert.Equal(t, ":SMF11020#", conn.written[0])
}

func TestApplyMeridianFlipPolicyToleratesMissingAcknowledgement(t *testing.T) {
	conn := &scriptedConn{}
	m := newTestMount(Config{PerformMeridianFlip: false}, conn)
	assert.NotPanics(t, func() { m.applyMeridianFlipPolicy() })
}

func TestProbeEquatorialModeToleratesSilence(t *testing.T) {
	conn := &scriptedConn{}
	m := newTestMount(Config{}, conn)
	assert.NotPanics(t, func() { m.probeEquatorialMode() })
	require.Len(t, conn.written, 1)
	assert.Equal(t, cmdSwitchToEquatorialMode, conn.written[0])
}

func TestSetTrackingTrustsStatusReportOverFailedAck(t *testing.T) {
	// :Te# never answers, but the status report says tracking is already
	// on -- the command is considered successful with no retry.
	conn := &scriptedConn{responses: map[string]string{":GAT#": "1#"}}
	m := newTestMount(Config{}, conn)
	m.timeout = 20 * time.Millisecond
	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, m.SetTracking(true))
	assert.Equal(t, []string{":Te#", ":GAT#"}, conn.written)
	assert.Empty(t, slept)
}

func TestSetTrackingRetriesOnceAfterTwoSecondBackoff(t *testing.T) {
	// First verify reports a true mismatch; the single retry comes only
	// after the 2s backoff, and its verify then matches.
	conn := &scriptedConn{queued: map[string][]string{":GAT#": {"0#", "1#"}}}
	m := newTestMount(Config{}, conn)
	m.timeout = 20 * time.Millisecond
	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, m.SetTracking(true))
	assert.Equal(t, []string{":Te#", ":GAT#", ":Te#", ":GAT#"}, conn.written)
	assert.Equal(t, []time.Duration{2 * time.Second}, slept)
}

func TestSetTrackingSurfacesDriverErrorWhenStateNeverMatches(t *testing.T) {
	conn := &scriptedConn{queued: map[string][]string{":GAT#": {"0#", "0#"}}}
	m := newTestMount(Config{}, conn)
	m.timeout = 20 * time.Millisecond
	m.sleep = func(time.Duration) {}

	err := m.SetTracking(true)
	require.Error(t, err)
	// exactly one reissue: command, verify, command, verify
	assert.Equal(t, []string{":Te#", ":GAT#", ":Te#", ":GAT#"}, conn.written)
}

func TestPulseGuideChunksLongDurationsAtThreeSeconds(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{
		":Mge3000#": "1#",
		":Mge1500#": "1#",
	}}
	m := newTestMount(Config{}, conn)
	m.sleep = func(time.Duration) {}

	require.NoError(t, m.PulseGuide(2, 7500)) // east
	require.Eventually(t, func() bool { return !m.IsPulseGuiding() }, time.Second, time.Millisecond)

	assert.Equal(t, []string{":Mge3000#", ":Mge3000#", ":Mge1500#"}, conn.written)
}

func TestPulseGuideRejectsNegativeDurationAndUnknownDirection(t *testing.T) {
	conn := &scriptedConn{}
	m := newTestMount(Config{}, conn)

	require.Error(t, m.PulseGuide(2, -1))
	require.Error(t, m.PulseGuide(9, 1000))
	assert.Empty(t, conn.written)
}

func TestMoveAxisRejectsRateBeyondWireCeilingWithoutTouchingPort(t *testing.T) {
	conn := &scriptedConn{}
	m := newTestMount(Config{}, conn)

	// 1440 x sidereal is 6.048 deg/s; anything above must never hit the
	// port.
	err := m.MoveAxis(0, 7.0)
	require.Error(t, err)
	assert.Empty(t, conn.written)
}

func TestMoveAxisZeroRateStopsTheAxis(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":Qe#": "1#"}}
	m := newTestMount(Config{}, conn)
	require.NoError(t, m.MoveAxis(0, 0))
	assert.Equal(t, []string{":Qe#"}, conn.written)
}

func TestParkedMountRefusesMotionCommands(t *testing.T) {
	conn := &scriptedConn{}
	m := newTestMount(Config{}, conn)
	m.parked = true

	require.Error(t, m.SlewToCoordinatesAsync(10, 0))
	require.Error(t, m.MoveAxis(0, 1))
	require.Error(t, m.PulseGuide(0, 100))
	require.Error(t, m.FindHome())
	assert.True(t, m.AtPark())
	assert.Empty(t, conn.written)
}

func TestUnparkClearsParkedState(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":hR#": "1#"}}
	m := newTestMount(Config{}, conn)
	m.parked = true
	require.NoError(t, m.Unpark())
	assert.False(t, m.AtPark())
}

func TestSiteLongitudeRoundTripsThroughTheSignQuirk(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{":Sg-030*30:00#": "1#"}}
	m := newTestMount(Config{}, conn)

	require.NoError(t, m.SetSiteLongitude(30.5))
	require.Len(t, conn.written, 1)
	assert.Equal(t, ":Sg-030*30:00#", conn.written[0])

	got, err := m.SiteLongitude()
	require.NoError(t, err)
	assert.Equal(t, 30.5, got)
}

func TestUTCDateReconstructsFromMountClock(t *testing.T) {
	conn := &scriptedConn{responses: map[string]string{
		":GG#": "+05:00#",
		":GC#": "07/15/26#",
		":GL#": "10:30:00#",
	}}
	m := newTestMount(Config{}, conn)

	got, err := m.UTCDate()
	require.NoError(t, err)

	// The mount stored "+05:00", i.e. a civil offset of UTC-5, so the
	// local reading is five hours behind UTC. The DST hour removed on
	// the write side is restored only when the host zone is currently in
	// DST, mirroring the write path exactly.
	want := time.Date(2026, 7, 15, 15, 30, 0, 0, time.UTC)
	if _, _, _, dst := utcOffsetQuirk(time.Now()); dst {
		want = want.Add(time.Hour)
	}
	assert.Equal(t, want, got)
}
