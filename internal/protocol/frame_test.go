package protocol

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLayout(t *testing.T) {
	buf := Encode(Frame{Kind: MouseDeltaX, Value: -2})
	assert.Equal(t, [FrameSize]byte{0x00, 0x03, 0xff, 0xfe}, buf)

	buf = Encode(Frame{Kind: HWheel, Value: 1})
	assert.Equal(t, [FrameSize]byte{0x00, 0x06, 0x00, 0x01}, buf)
}

func TestRoundTrip(t *testing.T) {
	values := []int16{math.MinInt16, -1, 0, 1, 42, math.MaxInt16}
	for kind := Disconnect; kind <= HWheel; kind++ {
		for _, v := range values {
			f := Frame{Kind: kind, Value: v}
			buf := Encode(f)
			got, err := Decode(buf[:])
			require.NoError(t, err)
			assert.Equal(t, f, got)
		}
	}
}

func TestPutDoesNotClobberNeighbours(t *testing.T) {
	var frames [3 * FrameSize]byte

	Frame{Kind: Kind(math.MaxUint16), Value: math.MinInt16}.Put(frames[FrameSize:])

	first, err := Decode(frames[0:FrameSize])
	require.NoError(t, err)
	middle, err := Decode(frames[FrameSize : 2*FrameSize])
	require.NoError(t, err)
	last, err := Decode(frames[2*FrameSize:])
	require.NoError(t, err)

	assert.Equal(t, Frame{}, first)
	assert.Equal(t, Frame{Kind: Kind(math.MaxUint16), Value: math.MinInt16}, middle)
	assert.Equal(t, Frame{}, last)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode([]byte{0, 1, 0})
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestKindValid(t *testing.T) {
	assert.True(t, HWheel.Valid())
	assert.False(t, Kind(7).Valid())
	assert.Equal(t, "UNKNOWN(7)", Kind(7).String())
	assert.Equal(t, "KEY_DOWN", KeyDown.String())
}

func TestReaderWriter(t *testing.T) {
	var stream bytes.Buffer
	w := NewWriter(&stream)
	sent := []Frame{
		{Kind: KeyDown, Value: 30},
		{Kind: KeyUp, Value: 30},
		{Kind: MouseDeltaY, Value: -7},
		{Kind: Wheel, Value: -1},
	}
	for _, f := range sent {
		require.NoError(t, w.WriteFrame(f))
	}
	assert.Equal(t, len(sent)*FrameSize, stream.Len())

	r := NewReader(&stream)
	for _, want := range sent {
		got, err := r.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestReaderShortReadIsEOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x00, 0x01, 0x00, 0x1e, 0x00, 0x02}))

	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, Frame{Kind: KeyDown, Value: 30}, f)

	_, err = r.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestReaderTransportError(t *testing.T) {
	boom := errors.New("connection reset by peer")
	_, err := NewReader(failingReader{err: boom}).ReadFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, io.EOF)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestWriterShortWrite(t *testing.T) {
	err := NewWriter(shortWriter{}).WriteFrame(Frame{Kind: KeyDown, Value: 1})
	assert.ErrorIs(t, err, io.ErrShortWrite)
}
