package device

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/types"
)

type ioctlCall struct {
	request uintptr
	arg     uintptr
}

type fakeControl struct {
	mu sync.Mutex

	ver    uint32
	verErr error
	sys    string
	fail   map[uintptr]error

	ioctls []ioctlCall
	setups []types.UinputSetup
	writes [][]byte
	closed bool
}

func newFakeControl(ver uint32) *fakeControl {
	return &fakeControl{ver: ver, sys: "input42", fail: map[uintptr]error{}}
}

func (c *fakeControl) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeControl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeControl) ioctl(request uintptr, arg uintptr) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ioctls = append(c.ioctls, ioctlCall{request: request, arg: arg})
	return c.fail[request]
}

func (c *fakeControl) version() (uint32, error) {
	return c.ver, c.verErr
}

func (c *fakeControl) devSetup(setup *types.UinputSetup) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setups = append(c.setups, *setup)
	return nil
}

func (c *fakeControl) sysname() (string, error) {
	return c.sys, nil
}

func (c *fakeControl) args(request uintptr) []uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	var args []uintptr
	for _, call := range c.ioctls {
		if call.request == request {
			args = append(args, call.arg)
		}
	}
	return args
}

func (c *fakeControl) requests() []uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	var reqs []uintptr
	for _, call := range c.ioctls {
		reqs = append(reqs, call.request)
	}
	return reqs
}

// events は書き込まれた input_event を順に返す
func (c *fakeControl) events(t *testing.T) []types.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	size := binary.Size(types.Event{})
	var events []types.Event
	for _, w := range c.writes {
		if len(w) != size {
			continue
		}
		var ev types.Event
		require.NoError(t, binary.Read(bytes.NewReader(w), binary.LittleEndian, &ev))
		events = append(events, ev)
	}
	return events
}

func (c *fakeControl) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = nil
	c.ioctls = nil
}

type fakeReadback struct {
	pressed []keymap.Keycode
	err     error
	closed  bool
}

func (r *fakeReadback) PressedKeys() ([]keymap.Keycode, error) {
	return r.pressed, r.err
}

func (r *fakeReadback) Path() string {
	return "/dev/input/event42"
}

func (r *fakeReadback) Close() error {
	r.closed = true
	return nil
}

func withReadback(rb readback) resolver {
	return func(control, string) (readback, error) {
		return rb, nil
	}
}

func withoutReadback() resolver {
	return func(control, string) (readback, error) {
		return nil, errors.Join(ErrNoReadback, errors.New("no sysfs"))
	}
}
