//go:build windows

package device

import "fmt"

const supportsSyncOutput = false

func rawMode(fd int) (func(), error) {
	return nil, fmt.Errorf("raw terminal input is not supported on windows")
}

func readInput(fd int, buf []byte) (int, error) {
	return 0, fmt.Errorf("raw terminal input is not supported on windows")
}
