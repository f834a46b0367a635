//go:build linux

package sensor

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE ioctl：选择从机地址
const i2cSlave = 0x0703

// I2CBus Linux i2c-dev 字符设备上的寄存器总线
//
// 只实现 Hub 需要的 write-reg / write-then-read 两种事务，
// 单线程使用（轮询循环内），不加锁。
type I2CBus struct {
	f *os.File
}

var _ Bus = (*I2CBus)(nil)

// OpenI2C 打开 i2c-dev 设备，如 "/dev/i2c-1"
func OpenI2C(device string) (*I2CBus, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c device %s: %w", device, err)
	}
	return &I2CBus{f: f}, nil
}

func (b *I2CBus) setAddr(addr uint8) error {
	if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("failed to select i2c slave 0x%02x: %w", addr, err)
	}
	return nil
}

// WriteRegister 写寄存器：reg 后跟数据一次写出
func (b *I2CBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	if err := b.setAddr(addr); err != nil {
		return err
	}
	payload := make([]byte, 0, len(buf)+1)
	payload = append(payload, reg)
	payload = append(payload, buf...)
	if _, err := b.f.Write(payload); err != nil {
		return fmt.Errorf("failed to write register 0x%02x: %w", reg, err)
	}
	return nil
}

// ReadRegister 读寄存器：先写寄存器地址，再读 len(buf) 字节
func (b *I2CBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	if err := b.setAddr(addr); err != nil {
		return err
	}
	if _, err := b.f.Write([]byte{reg}); err != nil {
		return fmt.Errorf("failed to select register 0x%02x: %w", reg, err)
	}
	if _, err := io.ReadFull(b.f, buf); err != nil {
		return fmt.Errorf("failed to read register 0x%02x: %w", reg, err)
	}
	return nil
}

// Close 关闭总线
func (b *I2CBus) Close() error {
	return b.f.Close()
}
