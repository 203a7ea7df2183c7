package keymap

// X11 の修飾キーマスク
const (
	ShiftMask   uint16 = 1 << 0
	ControlMask uint16 = 1 << 2
)

// 中断用の組み合わせ: Ctrl+Shift+Tab
const (
	abortKeysym Keysym = XK_Tab
	abortMask          = ShiftMask | ControlMask
)

// IsAbortChord は押されたキーが中断用の組み合わせかどうかを判定する
func IsAbortChord(sym Keysym, state uint16) bool {
	return sym == abortKeysym && state&abortMask == abortMask
}
