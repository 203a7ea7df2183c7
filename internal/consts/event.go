package consts

// イベントタイプの定数（input-event-codes.hより）
const (
	Syn = 0x00 // 同期イベント
	Key = 0x01 // キーイベント
	Rel = 0x02 // 相対座標イベント

	RelX      = 0x00 // X軸の相対移動
	RelY      = 0x01 // Y軸の相対移動
	RelHWheel = 0x06 // 水平ホイール
	RelWheel  = 0x08 // ホイールの相対移動

	SynReport = 0 // イベント報告の同期

	KeyMin         = 1     // KEY_ESC
	KeyboardKeyMax = 0xff  // 通常のキーボードキーの上限
	KeyMax         = 0x2ff // KEY_MAX

	MouseBtnLeft   = 0x110 // マウス左ボタン
	MouseBtnRight  = 0x111 // マウス右ボタン
	MouseBtnMiddle = 0x112 // マウス中ボタン

	KeyPressed  = 1
	KeyReleased = 0
)
