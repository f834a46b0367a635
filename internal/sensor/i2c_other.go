//go:build !linux

package sensor

import "fmt"

// I2CBus 非 Linux 平台占位（网关固件只跑 Linux）
type I2CBus struct{}

func OpenI2C(device string) (*I2CBus, error) {
	return nil, fmt.Errorf("i2c bus is only supported on linux")
}

func (b *I2CBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return fmt.Errorf("i2c bus is only supported on linux")
}

func (b *I2CBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return fmt.Errorf("i2c bus is only supported on linux")
}

func (b *I2CBus) Close() error { return nil }
