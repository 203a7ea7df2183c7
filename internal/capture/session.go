package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/protocol"
)

// State はキャプチャセッションの状態
type State int32

const (
	StateIdle State = iota
	StateAcquiring
	StateActive
	StateShuttingDown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAcquiring:
		return "Acquiring"
	case StateActive:
		return "Active"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Session はローカルの入力を排他的に取得し、フレームとして送信する
type Session struct {
	display Display
	conn    io.WriteCloser
	out     *protocol.Writer
	log     logrus.FieldLogger
	filter  *MotionFilter

	state   atomic.Int32
	reset   Point
	pending []Event
}

// Option はSessionの設定
type Option func(*Session)

// WithMotionFilter はポインタ移動量の平滑化を有効にする
func WithMotionFilter(f *MotionFilter) Option {
	return func(s *Session) {
		s.filter = f
	}
}

// NewSession はディスプレイと接続からセッションを作成する。
// セッション終了時に両方とも閉じられる
func NewSession(d Display, conn io.WriteCloser, log logrus.FieldLogger, opts ...Option) *Session {
	s := &Session{
		display: d,
		conn:    conn,
		out:     protocol.NewWriter(conn),
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.log.WithField("state", st).Debug("キャプチャ状態を変更しました")
}

// Run はグラブを取得し、中断キーの入力、送信エラー、ctxのキャンセルのいずれかまで入力を転送する。
// どの経路で終了してもグラブは解放される
func (s *Session) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateAcquiring)) {
		return errors.New("capture session already started")
	}

	var guard *grabGuard
	defer func() {
		s.shutdown(guard)
	}()

	guard, err := acquireGrabs(ctx, s.display, s.log)
	if err != nil {
		return err
	}
	if err := s.activate(); err != nil {
		return err
	}

	for {
		ev, err := s.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("キャンセルされたため転送を終了します")
				return nil
			}
			return err
		}
		done, err := s.handle(ev)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// activate は画面中央にポインタを移動し、それまでに溜まった通知を捨てる
func (s *Session) activate() error {
	size, err := s.display.ScreenSize()
	if err != nil {
		return err
	}
	s.reset = size.Center()
	if err := s.display.WarpPointer(s.reset); err != nil {
		return fmt.Errorf("ポインタを中央に移動できませんでした: %w", err)
	}

	for {
		_, ok, err := s.display.PollEvent()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	s.pending = s.pending[:0]
	s.filter.Reset()

	s.setState(StateActive)
	s.log.WithField("reset", s.reset).Info("入力の転送を開始します。Ctrl+Shift+Tab で終了します")
	return nil
}

func (s *Session) shutdown(guard *grabGuard) {
	s.setState(StateShuttingDown)
	guard.Release()
	if err := s.conn.Close(); err != nil {
		s.log.WithError(err).Debug("接続のクローズに失敗しました")
	}
	if err := s.display.Close(); err != nil {
		s.log.WithError(err).Debug("ディスプレイのクローズに失敗しました")
	}
	s.setState(StateClosed)
}

func (s *Session) next(ctx context.Context) (Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}
	return s.display.NextEvent(ctx)
}

// peek は次の通知を取り出さずに返す。すぐに読めるものが無ければ false
func (s *Session) peek() (Event, bool) {
	if len(s.pending) > 0 {
		return s.pending[0], true
	}
	ev, ok, err := s.display.PollEvent()
	if err != nil || !ok {
		return Event{}, false
	}
	s.pending = append(s.pending, ev)
	return ev, true
}

// handle は通知を分類して必要なフレームを送信する。中断キーなら true を返す
func (s *Session) handle(ev Event) (bool, error) {
	switch ev.Type {
	case EventKeyPress:
		if keymap.IsAbortChord(ev.Keysym, ev.State) {
			s.log.Info("中断キーが押されました")
			return true, nil
		}
		return false, s.forwardKey(ev, protocol.KeyDown)
	case EventKeyRelease:
		if s.consumeAutorepeat(ev) {
			return false, nil
		}
		return false, s.forwardKey(ev, protocol.KeyUp)
	case EventButtonPress:
		return false, s.forwardButton(ev, true)
	case EventButtonRelease:
		return false, s.forwardButton(ev, false)
	case EventMotion:
		return false, s.forwardMotion(ev)
	default:
		return false, nil
	}
}

// consumeAutorepeat はキーリピートによる解放と直後の押下の組を両方とも捨てる
func (s *Session) consumeAutorepeat(release Event) bool {
	next, ok := s.peek()
	if !ok {
		return false
	}
	if next.Type == EventKeyPress && next.Time == release.Time && next.Keycode == release.Keycode {
		s.pending = s.pending[1:]
		return true
	}
	return false
}

func (s *Session) forwardKey(ev Event, kind protocol.Kind) error {
	code, ok := keymap.TranslateKey(ev.Keysym)
	if !ok {
		s.log.WithFields(logrus.Fields{
			"keysym":  fmt.Sprintf("%#x", uint32(ev.Keysym)),
			"keycode": fmt.Sprintf("%#x", ev.Keycode),
		}).Info("変換できないキーです")
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"kind":    kind,
		"keysym":  fmt.Sprintf("%#x", uint32(ev.Keysym)),
		"keycode": code,
	}).Debug("キー")
	return s.send(protocol.Frame{Kind: kind, Value: int16(code)})
}

func (s *Session) forwardButton(ev Event, press bool) error {
	if keymap.IsWheelButton(ev.Button) {
		if !press {
			return nil
		}
		kind, value := keymap.WheelTick(ev.Button)
		s.log.WithFields(logrus.Fields{"button": ev.Button, "kind": kind}).Debug("ホイール")
		return s.send(protocol.Frame{Kind: kind, Value: value})
	}

	code, ok := keymap.TranslateButton(ev.Button)
	if !ok {
		s.log.WithField("button", ev.Button).Debug("未対応のボタンです")
		return nil
	}
	kind := protocol.KeyUp
	if press {
		kind = protocol.KeyDown
	}
	s.log.WithFields(logrus.Fields{"button": ev.Button, "kind": kind, "keycode": code}).Debug("ボタン")
	return s.send(protocol.Frame{Kind: kind, Value: int16(code)})
}

func (s *Session) forwardMotion(ev Event) error {
	if ev.Root == s.reset {
		return nil
	}

	dx := int(ev.Root.X) - int(s.reset.X)
	dy := int(ev.Root.Y) - int(s.reset.Y)
	dx, dy = s.filter.Filter(dx, dy)

	if dx != 0 {
		if err := s.send(protocol.Frame{Kind: protocol.MouseDeltaX, Value: clampInt16(dx)}); err != nil {
			return err
		}
	}
	if dy != 0 {
		if err := s.send(protocol.Frame{Kind: protocol.MouseDeltaY, Value: clampInt16(dy)}); err != nil {
			return err
		}
	}

	if err := s.display.WarpPointer(s.reset); err != nil {
		return fmt.Errorf("ポインタを中央に戻せませんでした: %w", err)
	}
	return s.discardMotion()
}

// discardMotion はワープで発生した移動通知を捨て、それ以外の通知は順番を保って残す
func (s *Session) discardMotion() error {
	kept := s.pending[:0]
	for _, ev := range s.pending {
		if ev.Type != EventMotion {
			kept = append(kept, ev)
		}
	}
	s.pending = kept

	for {
		ev, ok, err := s.display.PollEvent()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if ev.Type != EventMotion {
			s.pending = append(s.pending, ev)
		}
	}
}

func (s *Session) send(f protocol.Frame) error {
	if err := s.out.WriteFrame(f); err != nil {
		return fmt.Errorf("フレームの送信に失敗しました: %w", err)
	}
	return nil
}

func clampInt16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
