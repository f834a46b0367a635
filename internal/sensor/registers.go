package sensor

// 生物传感 Hub（MAX32664 系列）的 I2C 地址与寄存器定义
// 寄存器协议归厂家所有，这里只覆盖本服务用到的最小子集

// Address Hub 的默认 I2C 地址
const Address = 0x55

// 寄存器
const (
	regHubStatus  = 0x00 // Hub 状态（bit0: 忙, bit3: 数据就绪）
	regDeviceMode = 0x02 // 设备模式（0x00: 应用模式）
	regOutputMode = 0x10 // 输出格式（0x02: 算法数据）
	regFIFOThresh = 0x11 // FIFO 水位中断阈值
	regAlgoEnable = 0x52 // 算法开关（0x01: 开启 WHRM+SpO2）
	regReadStatus = 0x12 // 上次命令的执行状态码
	regReportData = 0x13 // 报告帧读取入口
)

// 设备模式
const (
	modeApplication = 0x00
	modeReset       = 0x02
)

// 输出格式
const (
	outputAlgoData      = 0x02 // 算法输出（心率/置信度/血氧/状态）
	outputSensorAndAlgo = 0x03 // 原始 LED 计数 + 算法输出
)

// reportFrameLen 报告帧长度：
// HR(2, x0.1bpm) + Confidence(1) + SpO2(2, x0.1%) + Status(1) + IR(3) + Red(3)
const reportFrameLen = 12

// 对象检测状态（报告帧 Status 字节）
const (
	StatusNoObject       = 0 // 传感器上没有对象
	StatusObjectDetected = 1 // 检测到对象
	StatusObjectOther    = 2 // 对象不是手指
	StatusFingerDetected = 3 // 检测到手指，数据有效
)

// Hub 执行状态码（regReadStatus），0 表示成功
const (
	CodeSuccess     = 0x00
	CodeCommError   = 0xFF // 总线通信失败
	CodeIllegalCmd  = 0x01 // 非法命令
	CodeNotReady    = 0x05 // 数据未就绪
	CodeAlgoTimeout = 0x06 // 算法未在期限内收敛
)
