package keymap

import "github.com/char5742/remote-input/internal/protocol"

// ホイールとして扱うポインタボタンの範囲 (X11 のボタン4〜7)
const (
	wheelUp    = 4
	wheelDown  = 5
	wheelLeft  = 6
	wheelRight = 7
)

// IsWheelButton はホイール範囲のボタンかどうかを返す
func IsWheelButton(button uint8) bool {
	return button >= wheelUp && button <= wheelRight
}

// WheelTick はホイールボタンの押下1回分のフレーム種別と向きを返す。
// 4:上(+1) 5:下(-1) 6:左(-1) 7:右(+1)
func WheelTick(button uint8) (protocol.Kind, int16) {
	kind := protocol.HWheel
	if button == wheelUp || button == wheelDown {
		kind = protocol.Wheel
	}
	value := int16(1)
	if button == wheelDown || button == wheelLeft {
		value = -1
	}
	return kind, value
}
