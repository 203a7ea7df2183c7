package api

import (
	"errors"
	"net/http"
)

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)

	// サービス関連のエンドポイント
	router.HandleFunc("GET /api/status", s.handleStatus)
	router.HandleFunc("GET /api/config", s.handleGetConfig)

	// デバイス関連のエンドポイント
	router.HandleFunc("GET /api/devices", s.handleGetDevices)
	router.HandleFunc("POST /api/device/release", s.handleReleaseKeys)

	// セッションイベント
	if s.hub != nil {
		router.HandleFunc("GET /api/events", s.hub.ServeWS)
	}
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"running": s.service.IsRunning(),
	})
}

// 状態取得ハンドラ
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Status())
}

// 設定取得ハンドラ
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.GetConfig())
}

// デバイス一覧取得ハンドラ
func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	source := s.nodes
	s.mutex.RUnlock()
	if source != nil {
		if nodes, ok := source.Nodes(); ok {
			s.writeJSON(w, http.StatusOK, nodes)
			return
		}
	}

	devices, err := s.listDevices(s.service.DeviceName())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "デバイス一覧の取得に失敗しました: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, devices)
}

// 押下中キーの解放ハンドラ
func (s *Server) handleReleaseKeys(w http.ResponseWriter, r *http.Request) {
	released, err := s.service.ReleaseKeys()
	if errors.Is(err, ErrNotRunning) {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"released": released})
}
