package types

import "github.com/char5742/remote-input/internal/consts"

// InputID はデバイス識別子を表す構造体
type InputID struct {
	Bustype uint16 // バスタイプ
	Vendor  uint16 // ベンダーID
	Product uint16 // 製品ID
	Version uint16 // バージョン
}

// UserDev は旧形式のuinputユーザーデバイス設定 (write で渡す)
type UserDev struct {
	Name       [consts.MaxNameSize]byte // デバイス名
	ID         InputID                  // デバイス識別子
	EffectsMax uint32                   // 最大エフェクト数
	Absmax     [consts.AbsSize]int32    // 絶対座標の最大値
	Absmin     [consts.AbsSize]int32    // 絶対座標の最小値
	Absfuzz    [consts.AbsSize]int32    // 絶対座標のファジー値
	Absflat    [consts.AbsSize]int32    // 絶対座標のフラット値
}

// UinputSetup は UI_DEV_SETUP に渡す構造体 (struct uinput_setup)
type UinputSetup struct {
	ID         InputID
	Name       [consts.MaxNameSize]byte
	EffectsMax uint32
}

// DeviceName は名前をuinput用の固定長配列に変換する
func DeviceName(name string) (fixed [consts.MaxNameSize]byte) {
	// 終端のNULを残す
	copy(fixed[:consts.MaxNameSize-1], name)
	return fixed
}
