package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrGrabFailed は再試行後も排他グラブを取得できなかったことを示す
var ErrGrabFailed = errors.New("exclusive grab failed")

// grabGuard はキーボードとポインタのグラブを保持し、Releaseで必ず解放する
type grabGuard struct {
	display  Display
	log      logrus.FieldLogger
	original Point

	keyboard bool
	pointer  bool
}

// acquireGrabs は元のポインタ位置を保存してからキーボード、ポインタの順にグラブする。
// ポインタのグラブに失敗した場合はキーボードを解放してからエラーを返す
func acquireGrabs(ctx context.Context, d Display, log logrus.FieldLogger) (*grabGuard, error) {
	original, err := d.QueryPointer()
	if err != nil {
		return nil, err
	}
	g := &grabGuard{display: d, log: log, original: original}

	if err := grabWithRetry(ctx, d, "keyboard", d.GrabKeyboard, d.WatchFocusChange, EventFocusChange); err != nil {
		return nil, err
	}
	g.keyboard = true

	if err := grabWithRetry(ctx, d, "pointer", d.GrabPointer, d.WatchPointerLeave, EventPointerLeave); err != nil {
		g.Release()
		return nil, err
	}
	g.pointer = true

	log.WithField("original", original).Debug("キーボードとポインタをグラブしました")
	return g, nil
}

// grabWithRetry は他のクライアントがグラブ中なら解放通知を待って一度だけ再試行する
func grabWithRetry(ctx context.Context, d Display, what string,
	grab func() (GrabStatus, error), watch func() error, release EventType) error {
	status, err := grab()
	if err != nil {
		return err
	}
	if status == GrabAlreadyGrabbed {
		if err := watch(); err != nil {
			return err
		}
		if err := waitFor(ctx, d, release); err != nil {
			return err
		}
		if status, err = grab(); err != nil {
			return err
		}
	}
	if status != GrabSuccess {
		return fmt.Errorf("%w: %s: %s", ErrGrabFailed, what, status)
	}
	return nil
}

func waitFor(ctx context.Context, d Display, t EventType) error {
	for {
		ev, err := d.NextEvent(ctx)
		if err != nil {
			return err
		}
		if ev.Type == t {
			return nil
		}
	}
}

// Release はポインタを元の位置に戻してからポインタ、キーボードの順に解放する。
// 二回目以降の呼び出しは何もしない
func (g *grabGuard) Release() {
	if g == nil {
		return
	}
	if g.pointer {
		g.pointer = false
		if err := g.display.WarpPointer(g.original); err != nil {
			g.log.WithError(err).Warn("ポインタを元の位置に戻せませんでした")
		}
		if err := g.display.UngrabPointer(); err != nil {
			g.log.WithError(err).Warn("ポインタの解放に失敗しました")
		}
	}
	if g.keyboard {
		g.keyboard = false
		if err := g.display.UngrabKeyboard(); err != nil {
			g.log.WithError(err).Warn("キーボードの解放に失敗しました")
		}
	}
}
