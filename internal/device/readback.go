package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	evdev "github.com/holoplot/go-evdev"

	"github.com/char5742/remote-input/internal/keymap"
)

// ErrNoReadback は押下中キーを読み戻すためのイベントノードが見つからないことを示す
var ErrNoReadback = errors.New("event device for readback not found")

var (
	sysfsInputDir = "/sys/devices/virtual/input"
	devInputDir   = "/dev/input"
)

// readback は仮想デバイス自身のイベントノード
type readback interface {
	PressedKeys() ([]keymap.Keycode, error)
	Path() string
	Close() error
}

type evdevReadback struct {
	dev *evdev.InputDevice
}

// PressedKeys は押下中のキーコードを昇順で返す
func (r *evdevReadback) PressedKeys() ([]keymap.Keycode, error) {
	state, err := r.dev.State(evdev.EV_KEY)
	if err != nil {
		return nil, fmt.Errorf("キー状態の取得に失敗しました: %w", err)
	}
	return pressedCodes(state), nil
}

func (r *evdevReadback) Path() string {
	return r.dev.Path()
}

func (r *evdevReadback) Close() error {
	return r.dev.Close()
}

func pressedCodes(state evdev.StateMap) []keymap.Keycode {
	var codes []keymap.Keycode
	for code, down := range state {
		if down {
			codes = append(codes, keymap.Keycode(code))
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// resolver は作成直後の仮想デバイスのイベントノードを探す
type resolver func(c control, name string) (readback, error)

// sysfsResolver は UI_GET_SYSNAME から /dev/input/eventN を求めて開く。
// 失敗した場合はデバイス一覧から名前で探す
func sysfsResolver(timeout time.Duration) resolver {
	return func(c control, name string) (readback, error) {
		path, err := eventNodeFromSysname(c, timeout)
		if err != nil {
			var byName error
			path, byName = eventNodeByName(name)
			if byName != nil {
				return nil, fmt.Errorf("%w: %v; %v", ErrNoReadback, err, byName)
			}
		}

		dev, err := evdev.Open(path)
		if err != nil {
			return nil, fmt.Errorf("イベントデバイスのオープンに失敗しました[path=%s]: %w", path, err)
		}
		return &evdevReadback{dev: dev}, nil
	}
}

func eventNodeFromSysname(c control, timeout time.Duration) (string, error) {
	sys, err := c.sysname()
	if err != nil {
		return "", fmt.Errorf("UI_GET_SYSNAME: %w", err)
	}
	event, err := eventChild(filepath.Join(sysfsInputDir, sys))
	if err != nil {
		return "", err
	}
	path := filepath.Join(devInputDir, event)
	if err := waitForNode(path, timeout); err != nil {
		return "", err
	}
	return path, nil
}

// eventChild はsysfsのデバイスディレクトリからeventNを探す
func eventChild(sysDir string) (string, error) {
	entries, err := os.ReadDir(sysDir)
	if err != nil {
		return "", fmt.Errorf("sysfsデバイスの読み込みに失敗しました: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "event") {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("%s にイベントノードがありません", sysDir)
}

// waitForNode はデバイスノードが作られるまで待つ。udevによる作成は非同期
func waitForNode(path string, timeout time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ディレクトリの監視に失敗しました: %s - %w", filepath.Dir(path), err)
	}
	// 監視開始までに作られていた場合
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("%s: watcher closed", path)
			}
			if filepath.Clean(ev.Name) == filepath.Clean(path) && ev.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("%s: watcher closed", path)
			}
			return fmt.Errorf("ファイルシステム監視エラー: %w", err)
		case <-timer.C:
			return fmt.Errorf("%s: %w", path, os.ErrDeadlineExceeded)
		}
	}
}

// eventNodeByName はデバイス一覧から名前が一致するイベントノードを探す
func eventNodeByName(name string) (string, error) {
	paths, err := listDevicePaths()
	if err != nil {
		return "", fmt.Errorf("デバイス一覧の取得に失敗しました: %w", err)
	}
	for _, p := range paths {
		if p.Name == name {
			return p.Path, nil
		}
	}
	return "", fmt.Errorf("名前が %q のデバイスが見つかりませんでした", name)
}
