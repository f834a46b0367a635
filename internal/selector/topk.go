// Package selector 提供上报窗口内的 Top-K 置信度筛选
//
// 生物传感 Hub 每次轮询给出一条带置信度的采样，窗口内只保留
// 置信度最高的 K 条（K=5 时 O(K) 线性扫描即可，不需要堆），
// 上报时对已填充槽位求算术平均并清空窗口。
package selector

import (
	"wisefido-vitals/internal/sensor"
)

// 默认参数与厂家示例保持一致
const (
	DefaultCapacity  = 5  // 窗口内保留的最高置信度采样数
	DefaultThreshold = 50 // 置信度过滤阈值（<=该值直接丢弃）
)

// TopK 固定容量的最高置信度采样缓冲
//
// 非并发安全：只在轮询循环内使用（单顺序循环，无共享可变状态）。
type TopK struct {
	capacity  int
	threshold int
	slots     []sensor.Reading
	offered   int
	rejected  int
}

// Summary 一个窗口的聚合快照
type Summary struct {
	AvgHeartRate  float64
	AvgSpO2       float64
	AvgConfidence float64
	SampleCount   int // 已填充槽位数
	Offered       int // 窗口内收到的采样总数
	Rejected      int // 低置信度被丢弃的采样数
	Samples       []sensor.Reading
}

// NewTopK 创建 Top-K 缓冲
// capacity/threshold 非法时回退到默认值
func NewTopK(capacity, threshold int) *TopK {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if threshold < 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &TopK{
		capacity:  capacity,
		threshold: threshold,
		slots:     make([]sensor.Reading, 0, capacity),
	}
}

// Offer 尝试把一条采样放入缓冲
//
// 规则（replace-the-min 变体）：
//  1. 置信度 <= 阈值：直接丢弃
//  2. 有空槽位：直接填充
//  3. 缓冲已满：找到当前置信度最低的槽位，
//     仅当新采样置信度严格高于该最小值时替换
//
// 返回该采样是否进入了缓冲。
func (t *TopK) Offer(r sensor.Reading) bool {
	t.offered++

	if r.Confidence <= t.threshold {
		t.rejected++
		return false
	}

	if len(t.slots) < t.capacity {
		t.slots = append(t.slots, r)
		return true
	}

	minIdx := 0
	for i := 1; i < len(t.slots); i++ {
		if t.slots[i].Confidence < t.slots[minIdx].Confidence {
			minIdx = i
		}
	}
	if r.Confidence > t.slots[minIdx].Confidence {
		t.slots[minIdx] = r
		return true
	}

	return false
}

// Snapshot 对已填充槽位求算术平均
//
// 空窗口返回 SampleCount=0 的快照（平均值为 0，不产生 NaN）。
func (t *TopK) Snapshot() Summary {
	s := Summary{
		SampleCount: len(t.slots),
		Offered:     t.offered,
		Rejected:    t.rejected,
	}
	if len(t.slots) == 0 {
		return s
	}

	var sumHR, sumSpO2, sumConf float64
	for _, r := range t.slots {
		sumHR += r.HeartRate
		sumSpO2 += r.SpO2
		sumConf += float64(r.Confidence)
	}
	n := float64(len(t.slots))
	s.AvgHeartRate = sumHR / n
	s.AvgSpO2 = sumSpO2 / n
	s.AvgConfidence = sumConf / n

	s.Samples = make([]sensor.Reading, len(t.slots))
	copy(s.Samples, t.slots)

	return s
}

// Reset 清空缓冲和窗口计数（每个上报间隔结束时调用）
func (t *TopK) Reset() {
	t.slots = t.slots[:0]
	t.offered = 0
	t.rejected = 0
}

// Len 当前已填充槽位数
func (t *TopK) Len() int {
	return len(t.slots)
}

// Capacity 缓冲容量 K
func (t *TopK) Capacity() int {
	return t.capacity
}
