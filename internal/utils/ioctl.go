package utils

import (
	"os"

	"golang.org/x/sys/unix"
)

// IOCtl はファイルに対して ioctl を発行する
func IOCtl(f *os.File, request uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), request, arg)
	if errno != 0 {
		return errno
	}
	return nil
}
