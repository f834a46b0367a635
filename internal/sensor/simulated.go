package sensor

import (
	"math/rand"
	"time"
)

// Simulated 模拟驱动（开发/测试用，不碰总线）
//
// 产生围绕基线漫步的心率/血氧序列，置信度随机分布，
// 偶尔给出低置信度或 StatusNoObject 采样，便于验证过滤逻辑。
type Simulated struct {
	rng       *rand.Rand
	heartRate float64
	spo2      float64
}

var _ Driver = (*Simulated)(nil)

// NewSimulated 创建模拟驱动，seed 相同则序列可复现
func NewSimulated(seed int64) *Simulated {
	return &Simulated{
		rng:       rand.New(rand.NewSource(seed)),
		heartRate: 72,
		spo2:      97.5,
	}
}

func (d *Simulated) Configure() error { return nil }

func (d *Simulated) Read() (Reading, error) {
	// 心率/血氧围绕基线小步漫步
	d.heartRate += d.rng.Float64()*2 - 1
	if d.heartRate < 50 {
		d.heartRate = 50
	}
	if d.heartRate > 120 {
		d.heartRate = 120
	}
	d.spo2 += d.rng.Float64()*0.4 - 0.2
	if d.spo2 < 90 {
		d.spo2 = 90
	}
	if d.spo2 > 100 {
		d.spo2 = 100
	}

	r := Reading{
		HeartRate: d.heartRate,
		SpO2:      d.spo2,
		IRCount:   90000 + uint32(d.rng.Intn(20000)),
		RedCount:  70000 + uint32(d.rng.Intn(20000)),
		Status:    StatusFingerDetected,
		Timestamp: time.Now(),
	}

	// 约 1/10 的采样模拟接触不良：低置信度 + 无对象状态
	if d.rng.Intn(10) == 0 {
		r.Confidence = d.rng.Intn(40)
		r.Status = StatusNoObject
	} else {
		r.Confidence = 60 + d.rng.Intn(41)
	}

	return r, nil
}

func (d *Simulated) Close() error { return nil }
