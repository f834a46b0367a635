package sensor

import (
	"fmt"
	"time"
)

// Reading 一次采样（对应 Hub 的一个报告帧）
type Reading struct {
	HeartRate  float64   // 心率（bpm，厂家定点值 x0.1 还原）
	Confidence int       // 置信度（0-100，厂家给出的采样可靠性评分）
	SpO2       float64   // 血氧饱和度（%，厂家定点值 x0.1 还原）
	IRCount    uint32    // IR LED 原始光强
	RedCount   uint32    // Red LED 原始光强
	Status     int       // 对象检测状态（StatusNoObject 等）
	Timestamp  time.Time // 采样时间
}

// Driver 生物传感 Hub 驱动接口
//
// 总线层的寄存器协议由厂家驱动负责，服务侧只依赖该接口。
// Read 每次返回一个报告帧；Hub 返回非零状态码时返回 *StatusError，
// 调用方记录诊断码后继续轮询（不重试、不中止）。
type Driver interface {
	Configure() error
	Read() (Reading, error)
	Close() error
}

// StatusError Hub 返回的非零执行状态码
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sensor hub status code %d", e.Code)
}

// Bus I2C 总线访问接口
//
// 与 TinyGo machine.I2C 的寄存器读写方法同形，由嵌入方注入具体实现
// （网关上通常是 /dev/i2c 封装，测试里是 fake）。
type Bus interface {
	ReadRegister(addr uint8, reg uint8, buf []byte) error
	WriteRegister(addr uint8, reg uint8, buf []byte) error
}
