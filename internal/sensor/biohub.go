package sensor

import (
	"fmt"
	"time"
)

// BioHub 基于 I2C 总线的生物传感 Hub 驱动
//
// Hub 内部自带 MCU 跑厂家算法，对外只暴露算法结果帧，
// 本驱动只做寄存器配置和报告帧解码。
type BioHub struct {
	bus     Bus
	address uint8
	data    []byte
	now     func() time.Time
}

var _ Driver = (*BioHub)(nil)

// NewBioHub 创建 BioHub 驱动，总线须已初始化
//
// 只构造对象，不触碰设备；上电配置在 Configure 中完成。
func NewBioHub(bus Bus) *BioHub {
	return &BioHub{
		bus:     bus,
		address: Address,
		data:    make([]byte, reportFrameLen),
		now:     time.Now,
	}
}

// Configure 上电配置：应用模式 + 算法输出 + 开启 WHRM/SpO2 算法
func (d *BioHub) Configure() error {
	if err := d.bus.WriteRegister(d.address, regDeviceMode, []byte{modeApplication}); err != nil {
		return fmt.Errorf("failed to set device mode: %w", err)
	}
	if err := d.bus.WriteRegister(d.address, regOutputMode, []byte{outputSensorAndAlgo}); err != nil {
		return fmt.Errorf("failed to set output mode: %w", err)
	}
	// 每帧都可读，不用 FIFO 水位中断（轮询模式）
	if err := d.bus.WriteRegister(d.address, regFIFOThresh, []byte{0x01}); err != nil {
		return fmt.Errorf("failed to set fifo threshold: %w", err)
	}
	if err := d.bus.WriteRegister(d.address, regAlgoEnable, []byte{0x01}); err != nil {
		return fmt.Errorf("failed to enable algorithm: %w", err)
	}
	// 厂家要求算法启动后等一个采样周期再读
	time.Sleep(time.Second)
	return nil
}

// Read 读取一个报告帧
//
// 先读执行状态码，非零时返回 *StatusError（调用方记录诊断码后继续）；
// 然后读 12 字节报告帧并解码为 Reading。
func (d *BioHub) Read() (Reading, error) {
	status := d.data[:1]
	if err := d.bus.ReadRegister(d.address, regReadStatus, status); err != nil {
		return Reading{}, &StatusError{Code: CodeCommError}
	}
	if status[0] != CodeSuccess {
		return Reading{}, &StatusError{Code: int(status[0])}
	}

	frame := d.data[:reportFrameLen]
	if err := d.bus.ReadRegister(d.address, regReportData, frame); err != nil {
		return Reading{}, &StatusError{Code: CodeCommError}
	}

	return decodeReportFrame(frame, d.now()), nil
}

// Close 停止算法并让 Hub 回到复位态
func (d *BioHub) Close() error {
	if err := d.bus.WriteRegister(d.address, regAlgoEnable, []byte{0x00}); err != nil {
		return fmt.Errorf("failed to disable algorithm: %w", err)
	}
	if err := d.bus.WriteRegister(d.address, regDeviceMode, []byte{modeReset}); err != nil {
		return fmt.Errorf("failed to reset device: %w", err)
	}
	return nil
}

// decodeReportFrame 解码 12 字节报告帧
//
// 布局：HR MSB/LSB（x0.1 bpm）、Confidence、SpO2 MSB/LSB（x0.1 %）、
// Status、IR（3字节大端）、Red（3字节大端）。
func decodeReportFrame(frame []byte, ts time.Time) Reading {
	r := Reading{
		HeartRate:  float64(uint16(frame[0])<<8|uint16(frame[1])) / 10.0,
		Confidence: int(frame[2]),
		SpO2:       float64(uint16(frame[3])<<8|uint16(frame[4])) / 10.0,
		Status:     int(frame[5]),
		IRCount:    uint32(frame[6])<<16 | uint32(frame[7])<<8 | uint32(frame[8]),
		RedCount:   uint32(frame[9])<<16 | uint32(frame[10])<<8 | uint32(frame[11]),
		Timestamp:  ts,
	}
	// 厂家字段越界时夹紧到合法范围
	if r.Confidence > 100 {
		r.Confidence = 100
	}
	if r.SpO2 > 100 {
		r.SpO2 = 100
	}
	return r
}
