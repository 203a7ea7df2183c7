package consts

// uinput デバイスの定数（uinput.hから）
const (
	MaxNameSize   = 80         // デバイス名の最大サイズ
	DevCreate     = 0x5501     // デバイス作成用のIOCTL
	DevDestroy    = 0x5502     // デバイス破棄用のIOCTL
	DevSetup      = 0x405c5503 // UI_DEV_SETUP (uinput バージョン5以降)
	SetEvBit      = 0x40045564 // イベントビット設定用のIOCTL
	SetKeyBit     = 0x40045565 // キービット設定用のIOCTL
	SetRelBit     = 0x40045566 // 相対座標ビット設定用のIOCTL
	GetVersion    = 0x8004552d // UI_GET_VERSION
	BusVirtual    = 0x06       // 仮想バスタイプ
	SetupMinVer   = 5          // UI_DEV_SETUP が使える最小バージョン
	SysnameMaxLen = 64
)

// その他のデバイス制御用定数
const (
	AbsSize = 64 // 絶対座標の配列サイズ
)

// ioctl 番号のエンコード（asm-generic/ioctl.h）
const (
	iocRead      = 2
	iocDirShift  = 30
	iocSizeShift = 16
	iocTypeShift = 8
)

// GetSysname は UI_GET_SYSNAME(len) を返す
func GetSysname(length int) uintptr {
	return uintptr(iocRead<<iocDirShift | length<<iocSizeShift | 'U'<<iocTypeShift | 44)
}
