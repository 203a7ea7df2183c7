package device

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"

	"github.com/char5742/remote-input/internal/consts"
	"github.com/char5742/remote-input/internal/types"
	"github.com/char5742/remote-input/internal/utils"
)

// uinputPaths は制御ファイルを探す順番
var uinputPaths = []string{"/dev/uinput", "/dev/input/uinput"}

// control はuinputの制御ファイルに対する操作
type control interface {
	io.WriteCloser
	ioctl(request uintptr, arg uintptr) error
	version() (uint32, error)
	devSetup(setup *types.UinputSetup) error
	sysname() (string, error)
}

type uinputFile struct {
	*os.File
}

// openUinput は制御ファイルを開く。/dev/uinput が無ければ /dev/input/uinput を試す
func openUinput() (control, error) {
	var errs []error
	for _, path := range uinputPaths {
		f, err := os.OpenFile(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
		if err == nil {
			return uinputFile{f}, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("uinputデバイスファイルを開くのに失敗しました: %w", errors.Join(errs...))
}

func (f uinputFile) ioctl(request uintptr, arg uintptr) error {
	return utils.IOCtl(f.File, request, arg)
}

func (f uinputFile) version() (uint32, error) {
	var v uint32
	if err := utils.IOCtl(f.File, consts.GetVersion, uintptr(unsafe.Pointer(&v))); err != nil {
		return 0, err
	}
	return v, nil
}

func (f uinputFile) devSetup(setup *types.UinputSetup) error {
	return utils.IOCtl(f.File, consts.DevSetup, uintptr(unsafe.Pointer(setup)))
}

func (f uinputFile) sysname() (string, error) {
	buf := make([]byte, consts.SysnameMaxLen)
	if err := utils.IOCtl(f.File, consts.GetSysname(len(buf)), uintptr(unsafe.Pointer(&buf[0]))); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// writeEvents はイベントを1件ずつ書き込む
func writeEvents(w io.Writer, events []types.Event) error {
	for _, ev := range events {
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %w", err)
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("イベントの書き込みに失敗しました: %w", err)
		}
	}
	return nil
}
