//go:build !windows

package device

import "golang.org/x/sys/unix"

const supportsSyncOutput = true

// rawMode disables canonical input and echo and sets a 0-byte minimum with a
// tenth-of-a-second timeout, so reads return quickly when no key is pressed.
// The returned func reinstates the original settings.
func rawMode(fd int) (func(), error) {
	orig, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	raw := *orig
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Iflag &^= unix.ICRNL | unix.INLCR | unix.IXON
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 1
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, err
	}
	return func() {
		_ = unix.IoctlSetTermios(fd, ioctlSetTermios, orig)
	}, nil
}

// readInput reads from the tty directly. The os.File wrapper turns the
// timeout's zero-byte result into io.EOF, which is not what a polling loop
// wants.
func readInput(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err == unix.EINTR || err == unix.EAGAIN {
		return 0, nil
	}
	return n, err
}
