//go:build windows

package udp

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// sockopts returns a ListenConfig control func that enables broadcast on the
// socket before bind, plus SO_REUSEADDR when asked.
func sockopts(reuseAddr bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var opErr error
		err := c.Control(func(fd uintptr) {
			opErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1)
			if opErr == nil && reuseAddr {
				opErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
			}
		})
		if err != nil {
			return err
		}
		return opErr
	}
}
