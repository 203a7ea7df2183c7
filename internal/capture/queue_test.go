package capture

import (
	"context"
	"testing"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/remote-input/internal/keymap"
)

func TestBatchReaderKeepsBatchTogether(t *testing.T) {
	ch := make(chan []Event, 2)
	r := &batchReader{ch: ch}

	ch <- []Event{keyRelease(keymap.XK_a, 38, 10), keyPress(keymap.XK_a, 38, 10)}

	ev, err := r.next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventKeyRelease, ev.Type)

	// 同じまとまりの押下は送り手を待たずに見える
	ev, ok, err := r.poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventKeyPress, ev.Type)

	_, ok, err = r.poll()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchReaderPollTakesNextBatch(t *testing.T) {
	ch := make(chan []Event, 2)
	r := &batchReader{ch: ch}
	ch <- []Event{motion(1, 1)}
	ch <- []Event{motion(2, 2), motion(3, 3)}

	var got []Point
	for {
		ev, ok, err := r.poll()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, ev.Root)
	}
	assert.Equal(t, []Point{{1, 1}, {2, 2}, {3, 3}}, got)
}

func TestBatchReaderSkipsEmptyBatches(t *testing.T) {
	ch := make(chan []Event, 2)
	r := &batchReader{ch: ch}
	ch <- nil
	ch <- []Event{buttonPress(1)}

	ev, err := r.next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventButtonPress, ev.Type)
}

func TestBatchReaderClosed(t *testing.T) {
	ch := make(chan []Event, 1)
	ch <- []Event{buttonPress(1)}
	close(ch)
	r := &batchReader{ch: ch}

	_, ok, err := r.poll()
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = r.poll()
	assert.ErrorIs(t, err, ErrDisplayClosed)
	_, err = r.next(context.Background())
	assert.ErrorIs(t, err, ErrDisplayClosed)
}

func TestBatchReaderCancel(t *testing.T) {
	r := &batchReader{ch: make(chan []Event)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCollectDrainsQueuedEvents(t *testing.T) {
	log, _ := test.NewNullLogger()
	d := &X11Display{
		log:        log,
		minKeycode: 38,
		perKeycode: 2,
		keysyms:    []xproto.Keysym{xproto.Keysym(keymap.XK_a), xproto.Keysym(keymap.XK_A)},
	}

	queued := []struct {
		ev   xgb.Event
		xerr xgb.Error
	}{
		{ev: xproto.KeyPressEvent{Detail: 38, Time: 10}},
		{xerr: xproto.ValueError{NiceName: "Value"}},
		{ev: xproto.MotionNotifyEvent{RootX: 5, RootY: 6}},
	}
	poll := func() (xgb.Event, xgb.Error) {
		if len(queued) == 0 {
			return nil, nil
		}
		next := queued[0]
		queued = queued[1:]
		return next.ev, next.xerr
	}

	batch := d.collect(xproto.KeyReleaseEvent{Detail: 38, Time: 10}, nil, poll)

	require.Len(t, batch, 3)
	assert.Equal(t, EventKeyRelease, batch[0].Type)
	assert.Equal(t, keymap.XK_a, batch[0].Keysym)
	assert.Equal(t, EventKeyPress, batch[1].Type)
	assert.Equal(t, uint32(10), batch[1].Time)
	assert.Equal(t, Event{Type: EventMotion, Root: Point{5, 6}}, batch[2])
	assert.Empty(t, queued)
}

func TestCollectErrorOnly(t *testing.T) {
	log, _ := test.NewNullLogger()
	d := &X11Display{log: log}

	batch := d.collect(nil, xproto.ValueError{NiceName: "Value"}, func() (xgb.Event, xgb.Error) { return nil, nil })
	assert.Empty(t, batch)
}
