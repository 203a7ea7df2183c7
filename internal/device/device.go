package device

import (
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/consts"
	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/types"
)

// DefaultReadbackTimeout はイベントノードの作成を待つ時間
const DefaultReadbackTimeout = 2 * time.Second

// 仮想デバイスの識別情報
var deviceID = types.InputID{
	Bustype: consts.BusVirtual,
	Vendor:  0x1,
	Product: 0x1,
	Version: 1,
}

// Options は仮想デバイス作成時の設定
type Options struct {
	Remap           *keymap.Remapper
	Logger          logrus.FieldLogger
	ReadbackTimeout time.Duration
}

// Info は仮想デバイスの状態
type Info struct {
	Name         string `json:"name"`
	Setup        string `json:"setup"`
	Readback     bool   `json:"readback"`
	ReadbackPath string `json:"readbackPath,omitempty"`
	RemapEntries int    `json:"remapEntries"`
}

// Device はuinputで作成したキーボード兼マウスの仮想デバイス。
// 注入はすべてmuで直列化される
type Device struct {
	mu sync.Mutex

	name   string
	ctl    control
	rb     readback
	remap  *keymap.Remapper
	setup  setupStrategy
	log    logrus.FieldLogger
	closed bool
	clock  func() time.Time
}

// Create は仮想デバイスを作成する。
// 押下中キーの読み戻しができない場合は警告のみで、キー解放による復旧が無効になる
func Create(name string, opts Options) (*Device, error) {
	ctl, err := openUinput()
	if err != nil {
		return nil, err
	}
	timeout := opts.ReadbackTimeout
	if timeout <= 0 {
		timeout = DefaultReadbackTimeout
	}
	return create(ctl, name, opts, sysfsResolver(timeout))
}

func create(ctl control, name string, opts Options, resolve resolver) (*Device, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := declareCapabilities(ctl, opts.Remap); err != nil {
		_ = ctl.Close()
		return nil, err
	}

	setup := selectSetup(ctl)
	if err := setup.apply(ctl, deviceID, name); err != nil {
		_ = ctl.Close()
		return nil, err
	}
	if err := ctl.ioctl(consts.DevCreate, 0); err != nil {
		_ = ctl.Close()
		return nil, fmt.Errorf("デバイスの作成に失敗しました: %w", err)
	}

	d := &Device{
		name:  name,
		ctl:   ctl,
		remap: opts.Remap,
		setup: setup,
		log:   log,
		clock: time.Now,
	}
	log.WithFields(logrus.Fields{"name": name, "setup": setup}).Info("仮想デバイスを作成しました")

	rb, err := resolve(ctl, name)
	if err != nil {
		log.WithError(err).Warn("イベントノードを開けませんでした。押下中キーの解放は無効になります")
	} else {
		d.rb = rb
		log.WithField("path", rb.Path()).Debug("イベントノードを開きました")
	}
	return d, nil
}

func (d *Device) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := Info{
		Name:         d.name,
		Setup:        d.setup.String(),
		Readback:     d.rb != nil,
		RemapEntries: d.remap.Len(),
	}
	if d.rb != nil {
		info.ReadbackPath = d.rb.Path()
	}
	return info
}

func (d *Device) timestamp() syscall.Timeval {
	return syscall.NsecToTimeval(d.clock().UnixNano())
}

func (d *Device) emit(events ...types.Event) error {
	if d.closed {
		return fmt.Errorf("device %s: already destroyed", d.name)
	}
	now := d.timestamp()
	for i := range events {
		events[i].Time = now
	}
	return writeEvents(d.ctl, events)
}

func (d *Device) syn() types.Event {
	return types.Event{Type: consts.Syn, Code: consts.SynReport, Value: 0}
}

func (d *Device) writeKey(code keymap.Keycode, down bool) error {
	value := int32(consts.KeyReleased)
	if down {
		value = consts.KeyPressed
	}
	return d.emit(
		types.Event{Type: consts.Key, Code: uint16(code), Value: value},
		d.syn(),
	)
}

// InjectKey はリマップを適用してキーイベントを送る
func (d *Device) InjectKey(code keymap.Keycode, down bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	mapped := d.remap.Remap(code)
	d.log.WithFields(logrus.Fields{"code": mapped, "down": down}).Debug("キー")
	return d.writeKey(mapped, down)
}

// InjectMotion はポインタを相対移動する。0の軸は送らず、何も送らなければ同期もしない
func (d *Device) InjectMotion(dx, dy int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.relative(consts.RelX, dx, consts.RelY, dy)
}

// InjectWheel はホイールを回す。dx が水平、dy が垂直
func (d *Device) InjectWheel(dx, dy int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.relative(consts.RelHWheel, dx, consts.RelWheel, dy)
}

func (d *Device) relative(xCode uint16, dx int32, yCode uint16, dy int32) error {
	var events []types.Event
	if dx != 0 {
		events = append(events, types.Event{Type: consts.Rel, Code: xCode, Value: dx})
	}
	if dy != 0 {
		events = append(events, types.Event{Type: consts.Rel, Code: yCode, Value: dy})
	}
	if len(events) == 0 {
		return nil
	}
	return d.emit(append(events, d.syn())...)
}

// ReleaseAllKeys は押下中のキーをすべて昇順に解放し、解放した数を返す。
// 読み戻しが無効なら何もしない
func (d *Device) ReleaseAllKeys() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releaseAllKeys()
}

func (d *Device) releaseAllKeys() int {
	if d.rb == nil || d.closed {
		return 0
	}
	codes, err := d.rb.PressedKeys()
	if err != nil {
		d.log.WithError(err).Warn("押下中キーの取得に失敗しました")
		return 0
	}

	released := 0
	for _, code := range codes {
		if err := d.writeKey(code, false); err != nil {
			d.log.WithError(err).WithField("code", code).Warn("キーの解放に失敗しました")
			continue
		}
		released++
	}
	if released > 0 {
		d.log.WithField("count", released).Info("押下中のキーを解放しました")
	}
	return released
}

// Destroy はキーを解放してからデバイスを破棄する。エラーはログのみ
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.releaseAllKeys()
	d.closed = true

	if err := d.ctl.ioctl(consts.DevDestroy, 0); err != nil {
		d.log.WithError(err).Error("デバイスの破棄に失敗しました")
	}
	if d.rb != nil {
		if err := d.rb.Close(); err != nil {
			d.log.WithError(err).Error("イベントデバイスのクローズに失敗しました")
		}
		d.rb = nil
	}
	if err := d.ctl.Close(); err != nil {
		d.log.WithError(err).Error("uinputデバイスのクローズに失敗しました")
	}
	d.log.WithField("name", d.name).Info("仮想デバイスを破棄しました")
}
