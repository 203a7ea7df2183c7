package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/protocol"
)

// fakeDisplay は通知をバッチ単位で配送するDisplay。
// NextEvent は次のバッチの先頭を返し、残りは PollEvent で読めるキューに入る
type fakeDisplay struct {
	mu sync.Mutex

	pointer Point
	size    Size

	keyboardStatus []GrabStatus
	pointerStatus  []GrabStatus

	queue  []Event
	script [][]Event
	onWarp func(p Point) []Event

	calls []string
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		pointer: Point{X: 100, Y: 200},
		size:    Size{Width: 1920, Height: 1080},
	}
}

func (d *fakeDisplay) record(call string) {
	d.calls = append(d.calls, call)
}

func (d *fakeDisplay) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDisplay) QueryPointer() (Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("query")
	return d.pointer, nil
}

func (d *fakeDisplay) ScreenSize() (Size, error) {
	return d.size, nil
}

func nextStatus(seq *[]GrabStatus) GrabStatus {
	if len(*seq) == 0 {
		return GrabSuccess
	}
	st := (*seq)[0]
	*seq = (*seq)[1:]
	return st
}

func (d *fakeDisplay) GrabKeyboard() (GrabStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("grab-keyboard")
	return nextStatus(&d.keyboardStatus), nil
}

func (d *fakeDisplay) GrabPointer() (GrabStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("grab-pointer")
	return nextStatus(&d.pointerStatus), nil
}

func (d *fakeDisplay) WatchFocusChange() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("watch-focus")
	return nil
}

func (d *fakeDisplay) WatchPointerLeave() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("watch-leave")
	return nil
}

func (d *fakeDisplay) UngrabKeyboard() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ungrab-keyboard")
	return nil
}

func (d *fakeDisplay) UngrabPointer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ungrab-pointer")
	return nil
}

func (d *fakeDisplay) WarpPointer(p Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(fmt.Sprintf("warp(%d,%d)", p.X, p.Y))
	if d.onWarp != nil {
		d.queue = append(d.queue, d.onWarp(p)...)
	}
	return nil
}

func (d *fakeDisplay) NextEvent(ctx context.Context) (Event, error) {
	d.mu.Lock()
	if len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		return ev, nil
	}
	if len(d.script) > 0 {
		batch := d.script[0]
		d.script = d.script[1:]
		d.queue = append(d.queue, batch[1:]...)
		d.mu.Unlock()
		return batch[0], nil
	}
	d.mu.Unlock()

	<-ctx.Done()
	return Event{}, ctx.Err()
}

func (d *fakeDisplay) PollEvent() (Event, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Event{}, false, nil
	}
	ev := d.queue[0]
	d.queue = d.queue[1:]
	return ev, true, nil
}

func (d *fakeDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("close")
	return nil
}

type fakeConn struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	err    error
	closed bool
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.buf.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frames(t *testing.T) []protocol.Frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	r := protocol.NewReader(bytes.NewReader(c.buf.Bytes()))
	var frames []protocol.Frame
	for {
		f, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func keyPress(sym keymap.Keysym, keycode uint8, time uint32) Event {
	return Event{Type: EventKeyPress, Keysym: sym, Keycode: keycode, Time: time}
}

func keyRelease(sym keymap.Keysym, keycode uint8, time uint32) Event {
	return Event{Type: EventKeyRelease, Keysym: sym, Keycode: keycode, Time: time}
}

func buttonPress(b uint8) Event {
	return Event{Type: EventButtonPress, Button: b}
}

func buttonRelease(b uint8) Event {
	return Event{Type: EventButtonRelease, Button: b}
}

func motion(x, y int16) Event {
	return Event{Type: EventMotion, Root: Point{X: x, Y: y}}
}

func abortChord() Event {
	return Event{
		Type:    EventKeyPress,
		Keysym:  keymap.XK_Tab,
		Keycode: 23,
		State:   keymap.ShiftMask | keymap.ControlMask,
	}
}
