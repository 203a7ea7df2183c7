package keymap

// Keysym はX11のキーシンボル値 (X11/keysymdef.h)
type Keysym uint32

// 変換表で使うキーシンボル
const (
	XK_BackSpace   Keysym = 0xff08
	XK_Tab         Keysym = 0xff09
	XK_Linefeed    Keysym = 0xff0a
	XK_Clear       Keysym = 0xff0b
	XK_Return      Keysym = 0xff0d
	XK_Pause       Keysym = 0xff13
	XK_Scroll_Lock Keysym = 0xff14
	XK_Sys_Req     Keysym = 0xff15
	XK_Escape      Keysym = 0xff1b
	XK_Delete      Keysym = 0xffff

	XK_Home      Keysym = 0xff50
	XK_Left      Keysym = 0xff51
	XK_Up        Keysym = 0xff52
	XK_Right     Keysym = 0xff53
	XK_Down      Keysym = 0xff54
	XK_Page_Up   Keysym = 0xff55
	XK_Page_Down Keysym = 0xff56
	XK_End       Keysym = 0xff57
	XK_Begin     Keysym = 0xff58

	XK_Print    Keysym = 0xff61
	XK_Insert   Keysym = 0xff63
	XK_Menu     Keysym = 0xff67
	XK_Num_Lock Keysym = 0xff7f

	XK_KP_Space     Keysym = 0xff80
	XK_KP_Tab       Keysym = 0xff89
	XK_KP_Enter     Keysym = 0xff8d
	XK_KP_Home      Keysym = 0xff95
	XK_KP_Left      Keysym = 0xff96
	XK_KP_Up        Keysym = 0xff97
	XK_KP_Right     Keysym = 0xff98
	XK_KP_Down      Keysym = 0xff99
	XK_KP_Page_Up   Keysym = 0xff9a
	XK_KP_Page_Down Keysym = 0xff9b
	XK_KP_End       Keysym = 0xff9c
	XK_KP_Begin     Keysym = 0xff9d
	XK_KP_Insert    Keysym = 0xff9e
	XK_KP_Delete    Keysym = 0xff9f
	XK_KP_Multiply  Keysym = 0xffaa
	XK_KP_Add       Keysym = 0xffab
	XK_KP_Separator Keysym = 0xffac
	XK_KP_Subtract  Keysym = 0xffad
	XK_KP_Decimal   Keysym = 0xffae
	XK_KP_Divide    Keysym = 0xffaf
	XK_KP_0         Keysym = 0xffb0
	XK_KP_1         Keysym = 0xffb1
	XK_KP_2         Keysym = 0xffb2
	XK_KP_3         Keysym = 0xffb3
	XK_KP_4         Keysym = 0xffb4
	XK_KP_5         Keysym = 0xffb5
	XK_KP_6         Keysym = 0xffb6
	XK_KP_7         Keysym = 0xffb7
	XK_KP_8         Keysym = 0xffb8
	XK_KP_9         Keysym = 0xffb9
	XK_KP_Equal     Keysym = 0xffbd

	XK_F1  Keysym = 0xffbe
	XK_F2  Keysym = 0xffbf
	XK_F3  Keysym = 0xffc0
	XK_F4  Keysym = 0xffc1
	XK_F5  Keysym = 0xffc2
	XK_F6  Keysym = 0xffc3
	XK_F7  Keysym = 0xffc4
	XK_F8  Keysym = 0xffc5
	XK_F9  Keysym = 0xffc6
	XK_F10 Keysym = 0xffc7
	XK_F11 Keysym = 0xffc8
	XK_F12 Keysym = 0xffc9

	XK_Shift_L   Keysym = 0xffe1
	XK_Shift_R   Keysym = 0xffe2
	XK_Control_L Keysym = 0xffe3
	XK_Control_R Keysym = 0xffe4
	XK_Caps_Lock Keysym = 0xffe5
	XK_Meta_L    Keysym = 0xffe7
	XK_Meta_R    Keysym = 0xffe8
	XK_Alt_L     Keysym = 0xffe9
	XK_Alt_R     Keysym = 0xffea
	XK_Super_L   Keysym = 0xffeb
	XK_Super_R   Keysym = 0xffec

	XK_space        Keysym = 0x0020
	XK_apostrophe   Keysym = 0x0027
	XK_comma        Keysym = 0x002c
	XK_minus        Keysym = 0x002d
	XK_period       Keysym = 0x002e
	XK_slash        Keysym = 0x002f
	XK_0            Keysym = 0x0030
	XK_1            Keysym = 0x0031
	XK_2            Keysym = 0x0032
	XK_3            Keysym = 0x0033
	XK_4            Keysym = 0x0034
	XK_5            Keysym = 0x0035
	XK_6            Keysym = 0x0036
	XK_7            Keysym = 0x0037
	XK_8            Keysym = 0x0038
	XK_9            Keysym = 0x0039
	XK_semicolon    Keysym = 0x003b
	XK_equal        Keysym = 0x003d
	XK_A            Keysym = 0x0041
	XK_Z            Keysym = 0x005a
	XK_bracketleft  Keysym = 0x005b
	XK_backslash    Keysym = 0x005c
	XK_bracketright Keysym = 0x005d
	XK_grave        Keysym = 0x0060
	XK_a            Keysym = 0x0061
	XK_z            Keysym = 0x007a
)
