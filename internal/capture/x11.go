package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/keymap"
)

const pointerEventMask = xproto.EventMaskPointerMotion |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease

// X11Display はX11サーバーへの接続をDisplayとして扱う
type X11Display struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	log    logrus.FieldLogger

	minKeycode xproto.Keycode
	perKeycode int
	keysyms    []xproto.Keysym

	cursor xproto.Cursor
	events chan []Event
	reader batchReader
	done   chan struct{}

	closeOnce sync.Once
}

// OpenX11 はディスプレイ名 (空なら $DISPLAY) に接続する
func OpenX11(name string, log logrus.FieldLogger) (*X11Display, error) {
	conn, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, fmt.Errorf("ディスプレイを開けません: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	d := &X11Display{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		log:    log,
		events: make(chan []Event, 64),
		done:   make(chan struct{}),
	}
	d.reader.ch = d.events

	if err := d.loadKeyboardMapping(setup); err != nil {
		conn.Close()
		return nil, err
	}

	go d.pump()
	return d, nil
}

func (d *X11Display) loadKeyboardMapping(setup *xproto.SetupInfo) error {
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	reply, err := xproto.GetKeyboardMapping(d.conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return fmt.Errorf("キーボードマッピングの取得に失敗しました: %w", err)
	}
	d.minKeycode = setup.MinKeycode
	d.perKeycode = int(reply.KeysymsPerKeycode)
	d.keysyms = reply.Keysyms
	return nil
}

// keysym はグループ0・レベル0のキーシンボルを返す
func (d *X11Display) keysym(kc xproto.Keycode) keymap.Keysym {
	if kc < d.minKeycode || d.perKeycode == 0 {
		return 0
	}
	i := int(kc-d.minKeycode) * d.perKeycode
	if i >= len(d.keysyms) {
		return 0
	}
	return keymap.Keysym(d.keysyms[i])
}

// pump はxgbが読み込み済みの通知をまとめて1件として渡す。
// キーリピートの押下が解放と別のまとまりに分かれないようにする
func (d *X11Display) pump() {
	defer close(d.events)
	for {
		ev, xerr := d.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		batch := d.collect(ev, xerr, d.conn.PollForEvent)
		if len(batch) == 0 {
			continue
		}
		select {
		case d.events <- batch:
		case <-d.done:
			return
		}
	}
}

// collect は first に続けて poll が返せる通知をすべて変換する。X11エラーはログのみ
func (d *X11Display) collect(first xgb.Event, firstErr xgb.Error, poll func() (xgb.Event, xgb.Error)) []Event {
	var batch []Event
	ev, xerr := first, firstErr
	for ev != nil || xerr != nil {
		if xerr != nil {
			d.log.WithField("error", xerr).Debug("X11エラーを受信しました")
		} else {
			batch = append(batch, d.convert(ev))
		}
		ev, xerr = poll()
	}
	return batch
}

func (d *X11Display) convert(ev xgb.Event) Event {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return Event{Type: EventKeyPress, Keycode: uint8(e.Detail), Keysym: d.keysym(e.Detail),
			State: e.State, Time: uint32(e.Time), Root: Point{e.RootX, e.RootY}}
	case xproto.KeyReleaseEvent:
		return Event{Type: EventKeyRelease, Keycode: uint8(e.Detail), Keysym: d.keysym(e.Detail),
			State: e.State, Time: uint32(e.Time), Root: Point{e.RootX, e.RootY}}
	case xproto.ButtonPressEvent:
		return Event{Type: EventButtonPress, Button: uint8(e.Detail),
			State: e.State, Time: uint32(e.Time), Root: Point{e.RootX, e.RootY}}
	case xproto.ButtonReleaseEvent:
		return Event{Type: EventButtonRelease, Button: uint8(e.Detail),
			State: e.State, Time: uint32(e.Time), Root: Point{e.RootX, e.RootY}}
	case xproto.MotionNotifyEvent:
		return Event{Type: EventMotion, State: e.State, Time: uint32(e.Time), Root: Point{e.RootX, e.RootY}}
	case xproto.FocusInEvent, xproto.FocusOutEvent:
		return Event{Type: EventFocusChange}
	case xproto.LeaveNotifyEvent:
		return Event{Type: EventPointerLeave, Time: uint32(e.Time), Root: Point{e.RootX, e.RootY}}
	default:
		return Event{Type: EventOther}
	}
}

func (d *X11Display) QueryPointer() (Point, error) {
	reply, err := xproto.QueryPointer(d.conn, d.root).Reply()
	if err != nil {
		return Point{}, fmt.Errorf("ポインタ位置の取得に失敗しました: %w", err)
	}
	return Point{X: reply.RootX, Y: reply.RootY}, nil
}

func (d *X11Display) ScreenSize() (Size, error) {
	return Size{Width: d.screen.WidthInPixels, Height: d.screen.HeightInPixels}, nil
}

func (d *X11Display) GrabKeyboard() (GrabStatus, error) {
	reply, err := xproto.GrabKeyboard(d.conn, true, d.root, xproto.TimeCurrentTime,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
	if err != nil {
		return 0, fmt.Errorf("キーボードのグラブに失敗しました: %w", err)
	}
	return GrabStatus(reply.Status), nil
}

func (d *X11Display) GrabPointer() (GrabStatus, error) {
	if d.cursor == 0 {
		cursor, err := d.invisibleCursor()
		if err != nil {
			return 0, err
		}
		d.cursor = cursor
	}

	reply, err := xproto.GrabPointer(d.conn, true, d.root, uint16(pointerEventMask),
		xproto.GrabModeAsync, xproto.GrabModeAsync, d.root, d.cursor, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return 0, fmt.Errorf("ポインタのグラブに失敗しました: %w", err)
	}
	return GrabStatus(reply.Status), nil
}

// invisibleCursor は透明な1x1のカーソルを作成する
func (d *X11Display) invisibleCursor() (xproto.Cursor, error) {
	pixmap, err := xproto.NewPixmapId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("pixmap id: %w", err)
	}
	if err := xproto.CreatePixmapChecked(d.conn, 1, pixmap, xproto.Drawable(d.root), 1, 1).Check(); err != nil {
		return 0, fmt.Errorf("カーソル用pixmapの作成に失敗しました: %w", err)
	}
	defer xproto.FreePixmap(d.conn, pixmap)

	gc, err := xproto.NewGcontextId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("gcontext id: %w", err)
	}
	if err := xproto.CreateGCChecked(d.conn, gc, xproto.Drawable(pixmap),
		xproto.GcForeground, []uint32{0}).Check(); err != nil {
		return 0, fmt.Errorf("GCの作成に失敗しました: %w", err)
	}
	xproto.PolyFillRectangle(d.conn, xproto.Drawable(pixmap), gc,
		[]xproto.Rectangle{{X: 0, Y: 0, Width: 1, Height: 1}})
	xproto.FreeGC(d.conn, gc)

	cursor, err := xproto.NewCursorId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("cursor id: %w", err)
	}
	if err := xproto.CreateCursorChecked(d.conn, cursor, pixmap, pixmap,
		0, 0, 0, 0, 0, 0, 0, 0).Check(); err != nil {
		return 0, fmt.Errorf("透明カーソルの作成に失敗しました: %w", err)
	}
	return cursor, nil
}

func (d *X11Display) selectRootInput(mask uint32) error {
	err := xproto.ChangeWindowAttributesChecked(d.conn, d.root, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		return fmt.Errorf("ルートウィンドウのイベント選択に失敗しました: %w", err)
	}
	return nil
}

func (d *X11Display) WatchFocusChange() error {
	return d.selectRootInput(xproto.EventMaskFocusChange)
}

func (d *X11Display) WatchPointerLeave() error {
	return d.selectRootInput(xproto.EventMaskLeaveWindow)
}

func (d *X11Display) UngrabKeyboard() error {
	return xproto.UngrabKeyboardChecked(d.conn, xproto.TimeCurrentTime).Check()
}

func (d *X11Display) UngrabPointer() error {
	return xproto.UngrabPointerChecked(d.conn, xproto.TimeCurrentTime).Check()
}

// WarpPointer はサーバーの処理完了まで待つ
func (d *X11Display) WarpPointer(p Point) error {
	return xproto.WarpPointerChecked(d.conn, xproto.WindowNone, d.root, 0, 0, 0, 0, p.X, p.Y).Check()
}

func (d *X11Display) NextEvent(ctx context.Context) (Event, error) {
	return d.reader.next(ctx)
}

func (d *X11Display) PollEvent() (Event, bool, error) {
	return d.reader.poll()
}

func (d *X11Display) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		if d.cursor != 0 {
			xproto.FreeCursor(d.conn, d.cursor)
		}
		d.conn.Close()
	})
	return nil
}
