// Package protocol はキャプチャ側と注入側をつなぐ固定長フレームの符号化を扱う。
//
// Wire format (big-endian, 4 bytes per frame, no header, no delimiter):
//
//	bytes[0:2] kind  (uint16)
//	bytes[2:4] value (int16)
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FrameSize は1フレームのバイト数
const FrameSize = 4

// DefaultPort は注入側が待ち受けるデフォルトポート
const DefaultPort = 4004

// Kind はフレームの種類
type Kind uint16

// フレーム種別。HWheel は 6 (旧リビジョンの 5 共有は扱わない)
const (
	Disconnect  Kind = 0
	KeyDown     Kind = 1
	KeyUp       Kind = 2
	MouseDeltaX Kind = 3
	MouseDeltaY Kind = 4
	Wheel       Kind = 5
	HWheel      Kind = 6
)

var kindNames = map[Kind]string{
	Disconnect:  "DISCONNECT",
	KeyDown:     "KEY_DOWN",
	KeyUp:       "KEY_UP",
	MouseDeltaX: "MOUSE_DX",
	MouseDeltaY: "MOUSE_DY",
	Wheel:       "WHEEL",
	HWheel:      "HWHEEL",
}

// Valid は既知の種別かどうかを返す
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint16(k))
}

// Frame はキャプチャした入力1件分のイベント
type Frame struct {
	Kind  Kind
	Value int16
}

func (f Frame) String() string {
	return fmt.Sprintf("%s %d", f.Kind, f.Value)
}

// ErrShortFrame は4バイトに満たないバッファを渡されたときのエラー
var ErrShortFrame = errors.New("protocol: frame shorter than 4 bytes")

// Put は b[:4] にフレームを書き込む。b[4:] には触れない
func (f Frame) Put(b []byte) {
	_ = b[FrameSize-1]
	binary.BigEndian.PutUint16(b[0:2], uint16(f.Kind))
	binary.BigEndian.PutUint16(b[2:4], uint16(f.Value))
}

// Encode はフレームをワイヤ形式に変換する
func Encode(f Frame) [FrameSize]byte {
	var buf [FrameSize]byte
	f.Put(buf[:])
	return buf
}

// Decode はワイヤ形式の先頭4バイトからフレームを復元する
func Decode(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	return Frame{
		Kind:  Kind(binary.BigEndian.Uint16(b[0:2])),
		Value: int16(binary.BigEndian.Uint16(b[2:4])),
	}, nil
}
