package keymap

import evdev "github.com/holoplot/go-evdev"

// Keycode はLinuxのevdevキーコード空間のコード（ワイヤ上のキー値）
type Keycode uint16

// captureKeys はキャプチャ側のキーシンボルからevdevキーコードへの変換表。
// 起動後に変更してはいけない
var captureKeys = map[Keysym]evdev.EvCode{
	// 制御キー
	XK_BackSpace:   evdev.KEY_BACKSPACE,
	XK_Tab:         evdev.KEY_TAB,
	XK_Linefeed:    evdev.KEY_LINEFEED,
	XK_Clear:       evdev.KEY_CLEAR,
	XK_Return:      evdev.KEY_ENTER,
	XK_Pause:       evdev.KEY_PAUSE,
	XK_Scroll_Lock: evdev.KEY_SCROLLLOCK,
	XK_Sys_Req:     evdev.KEY_SYSRQ,
	XK_Print:       evdev.KEY_SYSRQ,
	XK_Escape:      evdev.KEY_ESC,
	XK_Delete:      evdev.KEY_DELETE,
	XK_Insert:      evdev.KEY_INSERT,
	XK_Menu:        evdev.KEY_COMPOSE,
	XK_Num_Lock:    evdev.KEY_NUMLOCK,

	// カーソル移動
	XK_Home:      evdev.KEY_HOME,
	XK_Left:      evdev.KEY_LEFT,
	XK_Up:        evdev.KEY_UP,
	XK_Right:     evdev.KEY_RIGHT,
	XK_Down:      evdev.KEY_DOWN,
	XK_Page_Up:   evdev.KEY_PAGEUP,
	XK_Page_Down: evdev.KEY_PAGEDOWN,
	XK_End:       evdev.KEY_END,
	XK_Begin:     evdev.KEY_HOME,

	// テンキー
	XK_KP_Space:     evdev.KEY_SPACE,
	XK_KP_Tab:       evdev.KEY_TAB,
	XK_KP_Enter:     evdev.KEY_ENTER,
	XK_KP_Home:      evdev.KEY_HOME,
	XK_KP_Left:      evdev.KEY_LEFT,
	XK_KP_Up:        evdev.KEY_UP,
	XK_KP_Right:     evdev.KEY_RIGHT,
	XK_KP_Down:      evdev.KEY_DOWN,
	XK_KP_Page_Up:   evdev.KEY_PAGEUP,
	XK_KP_Page_Down: evdev.KEY_PAGEDOWN,
	XK_KP_End:       evdev.KEY_END,
	XK_KP_Begin:     evdev.KEY_HOME,
	XK_KP_Insert:    evdev.KEY_INSERT,
	XK_KP_Delete:    evdev.KEY_DELETE,
	XK_KP_Equal:     evdev.KEY_KPEQUAL,
	XK_KP_Multiply:  evdev.KEY_KPASTERISK,
	XK_KP_Add:       evdev.KEY_KPPLUS,
	XK_KP_Separator: evdev.KEY_KPCOMMA,
	XK_KP_Subtract:  evdev.KEY_KPMINUS,
	XK_KP_Decimal:   evdev.KEY_KPDOT,
	XK_KP_Divide:    evdev.KEY_KPSLASH,
	XK_KP_0:         evdev.KEY_KP0,
	XK_KP_1:         evdev.KEY_KP1,
	XK_KP_2:         evdev.KEY_KP2,
	XK_KP_3:         evdev.KEY_KP3,
	XK_KP_4:         evdev.KEY_KP4,
	XK_KP_5:         evdev.KEY_KP5,
	XK_KP_6:         evdev.KEY_KP6,
	XK_KP_7:         evdev.KEY_KP7,
	XK_KP_8:         evdev.KEY_KP8,
	XK_KP_9:         evdev.KEY_KP9,

	// ファンクションキー
	XK_F1:  evdev.KEY_F1,
	XK_F2:  evdev.KEY_F2,
	XK_F3:  evdev.KEY_F3,
	XK_F4:  evdev.KEY_F4,
	XK_F5:  evdev.KEY_F5,
	XK_F6:  evdev.KEY_F6,
	XK_F7:  evdev.KEY_F7,
	XK_F8:  evdev.KEY_F8,
	XK_F9:  evdev.KEY_F9,
	XK_F10: evdev.KEY_F10,
	XK_F11: evdev.KEY_F11,
	XK_F12: evdev.KEY_F12,

	// 修飾キー
	XK_Shift_L:   evdev.KEY_LEFTSHIFT,
	XK_Shift_R:   evdev.KEY_RIGHTSHIFT,
	XK_Control_L: evdev.KEY_LEFTCTRL,
	XK_Control_R: evdev.KEY_RIGHTCTRL,
	XK_Caps_Lock: evdev.KEY_CAPSLOCK,
	XK_Meta_L:    evdev.KEY_LEFTMETA,
	XK_Meta_R:    evdev.KEY_RIGHTMETA,
	XK_Super_L:   evdev.KEY_LEFTMETA,
	XK_Super_R:   evdev.KEY_RIGHTMETA,
	XK_Alt_L:     evdev.KEY_LEFTALT,
	XK_Alt_R:     evdev.KEY_RIGHTALT,

	// Latin 1
	XK_space:        evdev.KEY_SPACE,
	XK_apostrophe:   evdev.KEY_APOSTROPHE,
	XK_comma:        evdev.KEY_COMMA,
	XK_minus:        evdev.KEY_MINUS,
	XK_period:       evdev.KEY_DOT,
	XK_slash:        evdev.KEY_SLASH,
	XK_semicolon:    evdev.KEY_SEMICOLON,
	XK_equal:        evdev.KEY_EQUAL,
	XK_bracketleft:  evdev.KEY_LEFTBRACE,
	XK_backslash:    evdev.KEY_BACKSLASH,
	XK_bracketright: evdev.KEY_RIGHTBRACE,
	XK_grave:        evdev.KEY_GRAVE,
	XK_0:            evdev.KEY_0,
	XK_1:            evdev.KEY_1,
	XK_2:            evdev.KEY_2,
	XK_3:            evdev.KEY_3,
	XK_4:            evdev.KEY_4,
	XK_5:            evdev.KEY_5,
	XK_6:            evdev.KEY_6,
	XK_7:            evdev.KEY_7,
	XK_8:            evdev.KEY_8,
	XK_9:            evdev.KEY_9,

	Keysym('A'): evdev.KEY_A,
	Keysym('B'): evdev.KEY_B,
	Keysym('C'): evdev.KEY_C,
	Keysym('D'): evdev.KEY_D,
	Keysym('E'): evdev.KEY_E,
	Keysym('F'): evdev.KEY_F,
	Keysym('G'): evdev.KEY_G,
	Keysym('H'): evdev.KEY_H,
	Keysym('I'): evdev.KEY_I,
	Keysym('J'): evdev.KEY_J,
	Keysym('K'): evdev.KEY_K,
	Keysym('L'): evdev.KEY_L,
	Keysym('M'): evdev.KEY_M,
	Keysym('N'): evdev.KEY_N,
	Keysym('O'): evdev.KEY_O,
	Keysym('P'): evdev.KEY_P,
	Keysym('Q'): evdev.KEY_Q,
	Keysym('R'): evdev.KEY_R,
	Keysym('S'): evdev.KEY_S,
	Keysym('T'): evdev.KEY_T,
	Keysym('U'): evdev.KEY_U,
	Keysym('V'): evdev.KEY_V,
	Keysym('W'): evdev.KEY_W,
	Keysym('X'): evdev.KEY_X,
	Keysym('Y'): evdev.KEY_Y,
	Keysym('Z'): evdev.KEY_Z,

	Keysym('a'): evdev.KEY_A,
	Keysym('b'): evdev.KEY_B,
	Keysym('c'): evdev.KEY_C,
	Keysym('d'): evdev.KEY_D,
	Keysym('e'): evdev.KEY_E,
	Keysym('f'): evdev.KEY_F,
	Keysym('g'): evdev.KEY_G,
	Keysym('h'): evdev.KEY_H,
	Keysym('i'): evdev.KEY_I,
	Keysym('j'): evdev.KEY_J,
	Keysym('k'): evdev.KEY_K,
	Keysym('l'): evdev.KEY_L,
	Keysym('m'): evdev.KEY_M,
	Keysym('n'): evdev.KEY_N,
	Keysym('o'): evdev.KEY_O,
	Keysym('p'): evdev.KEY_P,
	Keysym('q'): evdev.KEY_Q,
	Keysym('r'): evdev.KEY_R,
	Keysym('s'): evdev.KEY_S,
	Keysym('t'): evdev.KEY_T,
	Keysym('u'): evdev.KEY_U,
	Keysym('v'): evdev.KEY_V,
	Keysym('w'): evdev.KEY_W,
	Keysym('x'): evdev.KEY_X,
	Keysym('y'): evdev.KEY_Y,
	Keysym('z'): evdev.KEY_Z,
}

// pointerButtons はポインタボタン(1〜3)の変換表
var pointerButtons = map[uint8]evdev.EvCode{
	1: evdev.BTN_LEFT,
	2: evdev.BTN_MIDDLE,
	3: evdev.BTN_RIGHT,
}

// TranslateKey はキーシンボルをキーコードに変換する。
// 対応するキーがない場合は false を返す
func TranslateKey(sym Keysym) (Keycode, bool) {
	code, ok := captureKeys[sym]
	if !ok || code == 0 {
		return 0, false
	}
	return Keycode(code), true
}

// TranslateButton はボタン1〜3をキーコードに変換する。
// ホイール範囲のボタンはここに渡さない
func TranslateButton(button uint8) (Keycode, bool) {
	code, ok := pointerButtons[button]
	if !ok {
		return 0, false
	}
	return Keycode(code), true
}

// mappedKeysyms は変換表に載っているキーシンボルの一覧を返す
func mappedKeysyms() []Keysym {
	syms := make([]Keysym, 0, len(captureKeys))
	for sym := range captureKeys {
		syms = append(syms, sym)
	}
	return syms
}
