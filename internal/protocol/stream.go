package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Reader はストリームからフレームを1件ずつ読み出す
type Reader struct {
	r   io.Reader
	buf [FrameSize]byte
}

// NewReader は r を読むReaderを作成する
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadFrame は次のフレームを読む。
// 切断や4バイト未満での終端は io.EOF を返す（セッションの正常終了）
func (r *Reader) ReadFrame() (Frame, error) {
	if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	return Decode(r.buf[:])
}

// Writer はフレームをストリームに書き込む
type Writer struct {
	w io.Writer
}

// NewWriter は w に書き込むWriterを作成する
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame はフレーム1件を1回の書き込みで送信する
func (w *Writer) WriteFrame(f Frame) error {
	buf := Encode(f)
	n, err := w.w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("write frame %s: %w", f, err)
	}
	if n != FrameSize {
		return fmt.Errorf("write frame %s: %w", f, io.ErrShortWrite)
	}
	return nil
}
