package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/device"
	"github.com/char5742/remote-input/internal/server"
)

// 配信するイベントの種類
const (
	EventSessionStarted = "session_started"
	EventSessionEnded   = "session_ended"
	EventDeviceAdded    = "device_added"
	EventDeviceRemoved  = "device_removed"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Event はWebSocketで配信する通知
type Event struct {
	Type    string            `json:"type"`
	Session *server.Session   `json:"session,omitempty"`
	Device  *device.InputNode `json:"device,omitempty"`
	Time    time.Time         `json:"time"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

// Hub はセッションの開始と終了、入力デバイスの増減を購読者に配信する
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	log         logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		log:         log,
	}
}

func (h *Hub) SessionStarted(s server.Session) {
	h.broadcast(Event{Type: EventSessionStarted, Session: &s, Time: time.Now()})
}

func (h *Hub) SessionEnded(s server.Session) {
	h.broadcast(Event{Type: EventSessionEnded, Session: &s, Time: time.Now()})
}

// DeviceChanged は device.Monitor のコールバックとして登録する
func (h *Hub) DeviceChanged(ev device.NodeEvent) {
	typ := EventDeviceAdded
	if ev.Type == device.NodeRemoved {
		typ = EventDeviceRemoved
	}
	node := ev.Node
	h.broadcast(Event{Type: typ, Device: &node, Time: time.Now()})
}

// Subscribers は接続中の購読者数
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// broadcast は送信待ちが詰まっている購読者には送らない
func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- ev:
		default:
			h.log.WithField("remote", sub.conn.RemoteAddr()).Warn("イベントの送信が追いつかないため破棄しました")
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}

// ServeWS はWebSocketへ切り替えてイベントを配信する
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("WebSocketへの切り替えに失敗しました")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Event, sendBuffer)}
	h.add(sub)
	go h.writeLoop(sub)

	// 読み込みは切断の検出のみ
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(sub)
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for ev := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteJSON(ev); err != nil {
			h.log.WithError(err).Debug("イベントの送信に失敗しました")
			return
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// Close はすべての購読者を切断する
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()
	for _, sub := range subs {
		h.remove(sub)
	}
}
