package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/config"
	"github.com/char5742/remote-input/internal/device"
	"github.com/char5742/remote-input/internal/server"
)

// ErrNotRunning はサービスが開始されていないことを示す
var ErrNotRunning = errors.New("サービスは実行されていません")

// virtualDevice はサービスが所有する仮想デバイス
type virtualDevice interface {
	server.Injector
	Info() device.Info
	Destroy()
}

// InputService は仮想デバイスとセッションサーバーを管理する
type InputService struct {
	cfg *config.Config
	log logrus.FieldLogger
	hub *Hub

	createDevice func(name string, opts device.Options) (virtualDevice, error)
	listen       func(host string, port int) (net.Listener, error)

	statusMutex sync.RWMutex
	running     bool
	device      virtualDevice
	server      *server.Server
	startedAt   time.Time
}

// Status はサービスの状態
type Status struct {
	Running        bool            `json:"running"`
	Listen         string          `json:"listen,omitempty"`
	StartedAt      time.Time       `json:"startedAt,omitempty"`
	Device         *device.Info    `json:"device,omitempty"`
	Session        *server.Session `json:"session,omitempty"`
	SessionsServed uint64          `json:"sessionsServed"`
	Subscribers    int             `json:"subscribers"`
}

// NewInputService は新しいサービスを作成する。hub が nil ならイベント通知は行わない
func NewInputService(cfg *config.Config, log logrus.FieldLogger, hub *Hub) *InputService {
	return &InputService{
		cfg: cfg,
		log: log,
		hub: hub,
		createDevice: func(name string, opts device.Options) (virtualDevice, error) {
			d, err := device.Create(name, opts)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		listen: server.Listen,
	}
}

// Open は仮想デバイスを作成してから待ち受けを開始する。どちらの失敗も起動失敗として扱う
func (s *InputService) Open() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.device != nil {
		return fmt.Errorf("サービスは既に開始されています")
	}

	remap, err := s.cfg.Remapper()
	if err != nil {
		return err
	}

	dev, err := s.createDevice(s.cfg.Server.DeviceName, device.Options{Remap: remap, Logger: s.log})
	if err != nil {
		return fmt.Errorf("仮想デバイスの作成に失敗しました: %w", err)
	}

	l, err := s.listen(s.cfg.Server.Listen, s.cfg.Server.Port)
	if err != nil {
		dev.Destroy()
		return fmt.Errorf("待ち受けに失敗しました: %w", err)
	}

	var opts []server.Option
	if s.hub != nil {
		opts = append(opts, server.WithObserver(s.hub))
	}
	s.device = dev
	s.server = server.New(l, dev, s.log, opts...)
	return nil
}

// Run は ctx がキャンセルされるまで接続を処理する
func (s *InputService) Run(ctx context.Context) error {
	s.statusMutex.Lock()
	srv := s.server
	if srv == nil {
		s.statusMutex.Unlock()
		return ErrNotRunning
	}
	s.running = true
	s.startedAt = time.Now()
	s.statusMutex.Unlock()

	err := srv.Serve(ctx)

	s.statusMutex.Lock()
	s.running = false
	s.statusMutex.Unlock()
	return err
}

// Close は仮想デバイスを破棄する
func (s *InputService) Close() {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	if s.device != nil {
		s.device.Destroy()
		s.device = nil
	}
	s.server = nil
}

// IsRunning は接続を受け付けているかどうか
func (s *InputService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// Addr は待ち受けアドレス
func (s *InputService) Addr() net.Addr {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	if s.server == nil {
		return nil
	}
	return s.server.Addr()
}

func (s *InputService) Status() Status {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()

	st := Status{Running: s.running}
	if s.running {
		st.StartedAt = s.startedAt
	}
	if s.device != nil {
		info := s.device.Info()
		st.Device = &info
	}
	if s.server != nil {
		st.Listen = s.server.Addr().String()
		st.SessionsServed = s.server.Served()
		if sess, ok := s.server.Current(); ok {
			st.Session = &sess
		}
	}
	if s.hub != nil {
		st.Subscribers = s.hub.Subscribers()
	}
	return st
}

// ReleaseKeys は押下中のキーをすべて解放する
func (s *InputService) ReleaseKeys() (int, error) {
	s.statusMutex.RLock()
	dev := s.device
	s.statusMutex.RUnlock()

	if dev == nil {
		return 0, ErrNotRunning
	}
	return dev.ReleaseAllKeys(), nil
}

// DeviceName は仮想デバイス名
func (s *InputService) DeviceName() string {
	return s.cfg.Server.DeviceName
}
