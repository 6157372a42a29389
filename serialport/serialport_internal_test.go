package serialport

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a minimal io.ReadWriteCloser used to drive Port without a
// real OS serial device, mirroring the fake-transport pattern used for
// the serial tests in banshee-data-velocity.report.
type fakeConn struct {
	mu      sync.Mutex
	toRead  *bytes.Buffer
	written bytes.Buffer
	closed  bool
}

func newFakeConn(preload string) *fakeConn {
	return &fakeConn{toRead: bytes.NewBufferString(preload)}
}

func (f *fakeConn) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toRead.Len() == 0 {
		return 0, nil // mimic tarm/serial's per-read timeout behavior
	}
	return f.toRead.Read(p)
}

func (f *fakeConn) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestPort(conn io.ReadWriteCloser) *Port {
	return &Port{conn: conn, name: "test"}
}

func TestWriteAtomic(t *testing.T) {
	fc := newFakeConn("")
	p := newTestPort(fc)
	require.NoError(t, p.Write([]byte(":SC01/02/03#")))
	assert.Equal(t, ":SC01/02/03#", fc.written.String())
}

func TestReadUntilSuccess(t *testing.T) {
	fc := newFakeConn("12:34:56#")
	p := newTestPort(fc)
	buf, err := p.ReadUntil('#', time.Second)
	require.NoError(t, err)
	assert.Equal(t, "12:34:56#", string(buf))
}

func TestReadUntilTimeout(t *testing.T) {
	fc := newFakeConn("") // never produces data
	p := newTestPort(fc)
	_, err := p.ReadUntil('#', 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestReadUntilOrSilenceTreatsTimeoutAsSuccess(t *testing.T) {
	fc := newFakeConn("")
	p := newTestPort(fc)
	buf, err := p.ReadUntilOrSilence('#', 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, buf)
}

type errConn struct{ *fakeConn }

func (e errConn) Read(p []byte) (int, error) {
	return 0, errors.New("boom")
}

func TestReadUntilPropagatesHardError(t *testing.T) {
	p := newTestPort(errConn{newFakeConn("")})
	_, err := p.ReadUntil('#', time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
