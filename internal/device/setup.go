package device

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/char5742/remote-input/internal/consts"
	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/types"
)

// setupStrategy はデバイス識別情報の登録方法。カーネルのuinputバージョンで一度だけ選ぶ
type setupStrategy interface {
	String() string
	apply(c control, id types.InputID, name string) error
}

// modernSetup は UI_DEV_SETUP を使う (uinput バージョン5以降)
type modernSetup struct{}

func (modernSetup) String() string { return "ui_dev_setup" }

func (modernSetup) apply(c control, id types.InputID, name string) error {
	setup := types.UinputSetup{ID: id, Name: types.DeviceName(name)}
	if err := c.devSetup(&setup); err != nil {
		return fmt.Errorf("UI_DEV_SETUPに失敗しました: %w", err)
	}
	return nil
}

// legacySetup は uinput_user_dev 構造体を書き込む
type legacySetup struct{}

func (legacySetup) String() string { return "uinput_user_dev" }

func (legacySetup) apply(c control, id types.InputID, name string) error {
	userDev := types.UserDev{ID: id, Name: types.DeviceName(name)}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, userDev); err != nil {
		return fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %w", err)
	}
	if _, err := c.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %w", err)
	}
	return nil
}

func selectSetup(c control) setupStrategy {
	v, err := c.version()
	if err == nil && v >= consts.SetupMinVer {
		return modernSetup{}
	}
	return legacySetup{}
}

// keyCapabilities は登録するキーコードを昇順で返す。
// キーボードの1〜255、マウスボタン3つ、リマップ先
func keyCapabilities(remap *keymap.Remapper) []uint16 {
	seen := make(map[uint16]bool)
	var codes []uint16
	add := func(code uint16) {
		if code == 0 || code > consts.KeyMax || seen[code] {
			return
		}
		seen[code] = true
		codes = append(codes, code)
	}

	for code := uint16(consts.KeyMin); code <= consts.KeyboardKeyMax; code++ {
		add(code)
	}
	add(consts.MouseBtnLeft)
	add(consts.MouseBtnRight)
	add(consts.MouseBtnMiddle)
	for _, target := range remap.Targets() {
		add(uint16(target))
	}
	return codes
}

var relCapabilities = []uint16{consts.RelX, consts.RelY, consts.RelWheel, consts.RelHWheel}

// declareCapabilities は EV_KEY と EV_REL のビットを登録する
func declareCapabilities(c control, remap *keymap.Remapper) error {
	if err := c.ioctl(consts.SetEvBit, consts.Key); err != nil {
		return fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %w", err)
	}
	for _, code := range keyCapabilities(remap) {
		if err := c.ioctl(consts.SetKeyBit, uintptr(code)); err != nil {
			return fmt.Errorf("キー入力種別の登録に失敗しました %d: %w", code, err)
		}
	}

	if err := c.ioctl(consts.SetEvBit, consts.Rel); err != nil {
		return fmt.Errorf("相対座標入力イベント(EV_REL)の登録に失敗しました: %w", err)
	}
	for _, code := range relCapabilities {
		if err := c.ioctl(consts.SetRelBit, uintptr(code)); err != nil {
			return fmt.Errorf("相対座標軸の登録に失敗しました %d: %w", code, err)
		}
	}
	return nil
}
