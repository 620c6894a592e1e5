//go:build !linux

package serial

import (
	"fmt"
	"io"
)

func openPort(path string, baud int) (io.ReadCloser, error) {
	return nil, fmt.Errorf("serial port %s: not supported on this platform", path)
}
