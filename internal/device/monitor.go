package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// NodeEventType は入力デバイスの変化の種類
type NodeEventType int

const (
	NodeAdded NodeEventType = iota
	NodeRemoved
)

func (t NodeEventType) String() string {
	switch t {
	case NodeAdded:
		return "added"
	case NodeRemoved:
		return "removed"
	}
	return fmt.Sprintf("NodeEventType(%d)", int(t))
}

// NodeEvent は入力デバイスの接続または切断
type NodeEvent struct {
	Type NodeEventType
	Node InputNode
}

const defaultDebounce = 500 * time.Millisecond

// Monitor は /dev/input を監視し、デバイスの増減をコールバックに通知する
type Monitor struct {
	ownName  string
	dir      string
	debounce time.Duration
	log      logrus.FieldLogger

	mutex     sync.RWMutex
	nodes     map[string]InputNode // パスをキーにしたデバイスマップ
	ready     bool
	callbacks []func(NodeEvent)
}

// NewMonitor は監視を作成する。ownName のデバイスには Own が付く
func NewMonitor(ownName string, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		ownName:  ownName,
		dir:      devInputDir,
		debounce: defaultDebounce,
		log:      log,
		nodes:    make(map[string]InputNode),
	}
}

// RegisterCallback はデバイスイベントのコールバック関数を登録する
func (m *Monitor) RegisterCallback(cb func(NodeEvent)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Nodes は現在接続されているデバイスのスナップショットをパス順に返す。
// 監視中でなければ false
func (m *Monitor) Nodes() ([]InputNode, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if !m.ready {
		return nil, false
	}

	nodes := make([]InputNode, 0, len(m.nodes))
	for _, n := range m.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, true
}

// Run は ctx がキャンセルされるまで監視する。
// 短時間に続いたファイルシステムイベントは1回の再スキャンにまとめる
func (m *Monitor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("デバイス監視を開始できません: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("ディレクトリの監視に失敗しました: %s: %w", m.dir, err)
	}
	m.log.WithField("dir", m.dir).Debug("デバイスモニターを開始します")
	defer func() {
		m.mutex.Lock()
		m.ready = false
		m.mutex.Unlock()
	}()

	// 初期状態は通知しない
	m.rescan(false)

	timer := time.NewTimer(m.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case <-timer.C:
			pending = false
			m.rescan(true)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			m.log.WithField("event", event).Trace("ファイルシステムイベント")
			if !pending {
				pending = true
				timer.Reset(m.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.WithError(err).Warn("ファイルシステム監視エラー")
		}
	}
}

// rescan はデバイス一覧を取り直し、差分を通知する
func (m *Monitor) rescan(notify bool) {
	nodes, err := ListInputNodes(m.ownName)
	if err != nil {
		m.log.WithError(err).Warn("デバイスの再スキャンに失敗しました")
		return
	}

	current := make(map[string]InputNode, len(nodes))
	for _, n := range nodes {
		current[n.Path] = n
	}

	m.mutex.Lock()
	var events []NodeEvent
	for path, n := range m.nodes {
		if _, ok := current[path]; !ok {
			events = append(events, NodeEvent{Type: NodeRemoved, Node: n})
		}
	}
	for _, n := range nodes {
		if old, ok := m.nodes[n.Path]; !ok || old.Name != n.Name {
			events = append(events, NodeEvent{Type: NodeAdded, Node: n})
		}
	}
	m.nodes = current
	m.ready = true
	callbacks := make([]func(NodeEvent), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mutex.Unlock()

	if !notify {
		return
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Node.Path < events[j].Node.Path })
	for _, ev := range events {
		m.log.WithFields(logrus.Fields{
			"change": ev.Type,
			"path":   ev.Node.Path,
			"name":   ev.Node.Name,
		}).Info("入力デバイスの変化を検出しました")
		for _, cb := range callbacks {
			cb(ev)
		}
	}
}
