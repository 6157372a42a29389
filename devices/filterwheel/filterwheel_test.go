package filterwheel

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/alpacahub/serialport"
)

type fakeConn struct {
	written bytes.Buffer
}

func (f *fakeConn) Read(p []byte) (int, error)  { return 0, io.EOF }
func (f *fakeConn) Write(p []byte) (int, error) { return f.written.Write(p) }
func (f *fakeConn) Close() error                { return nil }

func newTestWheel() (*FilterWheel, *fakeConn) {
	fw := New(Config{
		Name:         "test wheel",
		UniqueID:     "fw-0",
		Names:        []string{"L", "R", "G", "B"},
		FocusOffsets: []int32{0, 10, 20, 30},
	})
	fc := &fakeConn{}
	fw.port = serialport.NewForTesting(fc)
	fw.connected = true
	return fw, fc
}

func TestNewPanicsOnMismatchedLengths(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{Names: []string{"L", "R"}, FocusOffsets: []int32{0}})
	})
}

func TestSetPositionRejectsOutOfRange(t *testing.T) {
	fw, _ := newTestWheel()
	require.Error(t, fw.SetPosition(-1))
	require.Error(t, fw.SetPosition(4))
}

func TestSetPositionWritesAndMarksBusy(t *testing.T) {
	fw, fc := newTestWheel()
	require.NoError(t, fw.SetPosition(2))
	assert.Contains(t, fc.written.String(), "WMOVE:2#")
	assert.True(t, fw.busy)
}

func TestApplyStatusLineClearsBusyAtTarget(t *testing.T) {
	fw, _ := newTestWheel()
	fw.target = 2
	fw.busy = true
	fw.applyStatusLine("pos:2,moving:0#")
	assert.Equal(t, int32(2), fw.Position())
	assert.False(t, fw.busy)
}

func TestNamesAndFocusOffsetsAreDefensiveCopies(t *testing.T) {
	fw, _ := newTestWheel()
	names := fw.Names()
	names[0] = "mutated"
	assert.Equal(t, "L", fw.cfg.Names[0])

	offsets := fw.FocusOffsets()
	offsets[0] = 999
	assert.Equal(t, int32(0), fw.cfg.FocusOffsets[0])
}
