//go:build linux

package hardware

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// applyFlowControl 在串口设备上开关 RTS/CTS 硬件流控
// termios 状态挂在tty设备上而不是文件描述符上，
// 因此这里通过一个临时描述符修改共享的驱动配置
func applyFlowControl(device string, enable bool) error {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	defer unix.Close(fd)

	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	if enable {
		tio.Cflag |= unix.CRTSCTS
	} else {
		tio.Cflag &^= unix.CRTSCTS
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}
