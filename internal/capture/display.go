package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/char5742/remote-input/internal/keymap"
)

// ErrDisplayClosed はディスプレイ接続が閉じられた後に返される
var ErrDisplayClosed = errors.New("display connection closed")

// EventType は入力通知の種別
type EventType int

const (
	EventOther EventType = iota
	EventKeyPress
	EventKeyRelease
	EventButtonPress
	EventButtonRelease
	EventMotion
	EventFocusChange
	EventPointerLeave
)

var eventTypeNames = map[EventType]string{
	EventOther:         "Other",
	EventKeyPress:      "KeyPress",
	EventKeyRelease:    "KeyRelease",
	EventButtonPress:   "ButtonPress",
	EventButtonRelease: "ButtonRelease",
	EventMotion:        "Motion",
	EventFocusChange:   "FocusChange",
	EventPointerLeave:  "PointerLeave",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Point はルートウィンドウ上の座標
type Point struct {
	X, Y int16
}

// Size は画面サイズ
type Size struct {
	Width, Height uint16
}

// Center は画面の中央
func (s Size) Center() Point {
	return Point{X: int16(s.Width / 2), Y: int16(s.Height / 2)}
}

// Event はディスプレイ非依存の入力通知
type Event struct {
	Type EventType
	// Keycode はディスプレイ側のネイティブなキーコード
	Keycode uint8
	// Keysym はグループ0・レベル0で解決したキーシンボル
	Keysym keymap.Keysym
	Button uint8
	State  uint16
	Time   uint32
	Root   Point
}

// GrabStatus は排他グラブの結果
type GrabStatus int

const (
	GrabSuccess GrabStatus = iota
	GrabAlreadyGrabbed
	GrabInvalidTime
	GrabNotViewable
	GrabFrozen
)

func (s GrabStatus) String() string {
	switch s {
	case GrabSuccess:
		return "Success"
	case GrabAlreadyGrabbed:
		return "AlreadyGrabbed"
	case GrabInvalidTime:
		return "InvalidTime"
	case GrabNotViewable:
		return "NotViewable"
	case GrabFrozen:
		return "Frozen"
	default:
		return fmt.Sprintf("GrabStatus(%d)", int(s))
	}
}

// Display はキャプチャセッションが利用する表示系の機能
type Display interface {
	QueryPointer() (Point, error)
	ScreenSize() (Size, error)
	// GrabKeyboard はルートウィンドウのキーボードを排他的に取得する
	GrabKeyboard() (GrabStatus, error)
	// GrabPointer はカーソルを不可視にしてポインタを排他的に取得する
	GrabPointer() (GrabStatus, error)
	WatchFocusChange() error
	WatchPointerLeave() error
	UngrabKeyboard() error
	UngrabPointer() error
	WarpPointer(p Point) error
	// NextEvent は次の通知が届くかctxがキャンセルされるまでブロックする
	NextEvent(ctx context.Context) (Event, error)
	// PollEvent は待たずに取り出せる通知を返す。無ければ false
	PollEvent() (Event, bool, error)
	Close() error
}
