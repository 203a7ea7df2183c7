package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/protocol"
)

// Injector はフレームを届ける先の仮想デバイス
type Injector interface {
	InjectKey(code keymap.Keycode, down bool) error
	InjectMotion(dx, dy int32) error
	InjectWheel(dx, dy int32) error
	ReleaseAllKeys() int
}

// Session は受け付けた接続1件
type Session struct {
	ID      uuid.UUID `json:"id"`
	Peer    string    `json:"peer"`
	Started time.Time `json:"started"`
	Frames  uint64    `json:"frames"`
}

// Observer はセッションの開始と終了を受け取る
type Observer interface {
	SessionStarted(s Session)
	SessionEnded(s Session)
}

// Option はServerの設定
type Option func(*Server)

// WithObserver はセッションの通知先を追加する
func WithObserver(o Observer) Option {
	return func(s *Server) {
		s.observers = append(s.observers, o)
	}
}

// WithAcceptLimit はacceptが失敗し続けたときの再試行間隔を設定する
func WithAcceptLimit(every time.Duration, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

// Server は接続を1件ずつ順番に処理する
type Server struct {
	listener  net.Listener
	device    Injector
	log       logrus.FieldLogger
	limiter   *rate.Limiter
	observers []Observer

	mu      sync.Mutex
	current *Session
	served  uint64
}

// Listen は host:port で待ち受ける。host が空なら全インターフェース
func Listen(host string, port int) (net.Listener, error) {
	return net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func New(l net.Listener, device Injector, log logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		listener: l,
		device:   device,
		log:      log,
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Current は処理中のセッションを返す
func (s *Server) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Served は終了したセッションの数
func (s *Server) Served() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

// Serve は ctx がキャンセルされるまで accept → 処理 → accept を繰り返す。
// キャンセルされるとリスナーを閉じ、処理中の接続も閉じる
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.listener.Close()
	})
	defer stop()

	s.log.WithField("addr", s.listener.Addr()).Info("接続の待ち受けを開始します")

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			if !errors.Is(err, syscall.EINTR) {
				s.log.WithError(err).Error("接続の受け付けに失敗しました")
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
			continue
		}

		s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	sess := Session{
		ID:      uuid.New(),
		Peer:    peerAddress(conn.RemoteAddr()),
		Started: time.Now(),
	}
	log := s.log.WithFields(logrus.Fields{"session": sess.ID, "peer": sess.Peer})

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	s.begin(&sess)
	log.Infof("%s からの接続を受け付けました", sess.Peer)

	defer func() {
		stop()
		if n := s.device.ReleaseAllKeys(); n > 0 {
			log.WithField("count", n).Debug("押下中のキーを解放しました")
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.WithError(err).Debug("接続のクローズに失敗しました")
		}
		log.Infof("%s との接続を終了します", sess.Peer)
		s.end(&sess)
	}()

	r := protocol.NewReader(conn)
	for {
		f, err := r.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.WithError(err).Error("クライアントからの読み込みに失敗しました")
			}
			return
		}
		if f.Kind == protocol.Disconnect {
			return
		}
		s.mu.Lock()
		s.current.Frames++
		s.mu.Unlock()
		s.dispatch(log, f)
	}
}

func (s *Server) begin(sess *Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	for _, o := range s.observers {
		o.SessionStarted(*sess)
	}
}

func (s *Server) end(sess *Session) {
	s.mu.Lock()
	s.current = nil
	s.served++
	done := *sess
	s.mu.Unlock()
	for _, o := range s.observers {
		o.SessionEnded(done)
	}
}

// dispatch は1フレームを仮想デバイスへの操作に変換する
func (s *Server) dispatch(log logrus.FieldLogger, f protocol.Frame) {
	if !f.Kind.Valid() {
		log.Errorf("不明なイベント種別です: %d", uint16(f.Kind))
		return
	}

	var err error
	switch f.Kind {
	case protocol.KeyDown, protocol.KeyUp:
		if f.Value <= 0 {
			log.WithField("frame", f).Warn("不正なキーコードです")
			return
		}
		err = s.device.InjectKey(keymap.Keycode(f.Value), f.Kind == protocol.KeyDown)
	case protocol.MouseDeltaX:
		err = s.device.InjectMotion(int32(f.Value), 0)
	case protocol.MouseDeltaY:
		err = s.device.InjectMotion(0, int32(f.Value))
	case protocol.Wheel:
		err = s.device.InjectWheel(0, int32(f.Value))
	case protocol.HWheel:
		err = s.device.InjectWheel(int32(f.Value), 0)
	}
	if err != nil {
		log.WithError(err).WithField("frame", f).Error("入力の注入に失敗しました")
	}
}

// peerAddress は接続元のIPアドレスを文字列にする。
// IPv4射影アドレスは "::ffff:a.b.c.d" の形のまま
func peerAddress(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.AddrPort().Addr().String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
