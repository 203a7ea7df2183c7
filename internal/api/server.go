package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/config"
	"github.com/char5742/remote-input/internal/device"
)

// Server は状態APIのHTTPサーバーを表す構造体
type Server struct {
	server  *http.Server
	cfg     *config.Config
	service *InputService
	hub     *Hub
	log     logrus.FieldLogger
	mutex   sync.RWMutex
	host    string
	port    int
	nodes   NodeSource

	listDevices func(ownName string) ([]device.InputNode, error)
}

// NewServer は新しいAPIサーバーを作成する。
// 待ち受けるアドレスは [server] listen、ポートは [api] port
func NewServer(cfg *config.Config, service *InputService, hub *Hub, log logrus.FieldLogger) *Server {
	return &Server{
		cfg:         cfg,
		service:     service,
		hub:         hub,
		log:         log,
		host:        cfg.Server.Listen,
		port:        cfg.API.Port,
		listDevices: device.ListInputNodes,
	}
}

// NodeSource は監視中のデバイス一覧を提供する。device.Monitor が満たす
type NodeSource interface {
	Nodes() ([]device.InputNode, bool)
}

// UseMonitor はデバイス一覧を監視中のスナップショットから返すようにする
func (s *Server) UseMonitor(m NodeSource) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nodes = m
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	s.setupRoutes(router)
	return readOnlyCORS(router)
}

// readOnlyCORS は読み取りのリクエストにだけ他オリジンからのアクセスを許可する
func readOnlyCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Start はAPIサーバーを開始する。Stop で止められた場合は nil を返す
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr())
	if err != nil {
		return fmt.Errorf("APIサーバーの待ち受けに失敗しました: %w", err)
	}
	return s.Serve(l)
}

// Serve は指定したリスナーでAPIサーバーを開始する
func (s *Server) Serve(l net.Listener) error {
	s.mutex.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	s.mutex.Unlock()

	s.log.Infof("APIサーバーを開始します: http://%s", l.Addr())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop はAPIサーバーを停止する
func (s *Server) Stop(ctx context.Context) error {
	s.mutex.RLock()
	srv := s.server
	s.mutex.RUnlock()

	if srv == nil {
		return nil
	}
	s.log.Info("APIサーバーを停止します...")
	if s.hub != nil {
		s.hub.Close()
	}
	return srv.Shutdown(ctx)
}

// GetConfig は現在の設定を返す
func (s *Server) GetConfig() *config.Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// writeJSON はJSONレスポンスを書き込む
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.WithError(err).Error("JSONエンコードエラー")
		}
	}
}

// writeError はエラーレスポンスを書き込む
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	response := map[string]string{"error": message}
	s.writeJSON(w, status, response)
}
