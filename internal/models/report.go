package models

// VitalReport 一个上报窗口的聚合结果
//
// 由轮询循环在每个上报间隔（默认 1000ms）结束时生成：
// 取窗口内置信度最高的 K 条采样，按已填充槽位求算术平均。
// 该结构同时作为 Redis Streams / MQTT 的标准化载荷和时序库的落库单位。
type VitalReport struct {
	ReportID   string `json:"report_id"`   // 报告ID（UUID）
	TenantID   string `json:"tenant_id"`   // 租户ID
	DeviceID   string `json:"device_id"`   // 设备ID
	DeviceType string `json:"device_type"` // 设备类型，固定 "BioHub"

	WindowStart int64 `json:"window_start"` // 窗口起点（Unix 毫秒）
	WindowEnd   int64 `json:"window_end"`   // 窗口终点（Unix 毫秒）

	AvgHeartRate  float64 `json:"avg_heart_rate"` // 平均心率（bpm）
	AvgSpO2       float64 `json:"avg_spo2"`       // 平均血氧（%）
	AvgConfidence float64 `json:"avg_confidence"` // 平均置信度（0-100）

	SampleCount   int `json:"sample_count"`   // 参与平均的槽位数（0-K）
	OfferedCount  int `json:"offered_count"`  // 窗口内采样总数
	RejectedCount int `json:"rejected_count"` // 低置信度被丢弃的采样数

	// 入选槽位的原始采样（供下游做可靠性复核）
	Samples []ReportSample `json:"samples,omitempty"`
}

// ReportSample 入选上报窗口的单条采样
type ReportSample struct {
	HeartRate  float64 `json:"heart_rate"` // 心率（bpm）
	Confidence int     `json:"confidence"` // 置信度（0-100）
	SpO2       float64 `json:"spo2"`       // 血氧（%）
	IRCount    uint32  `json:"ir_count"`   // IR LED 原始光强
	RedCount   uint32  `json:"red_count"`  // Red LED 原始光强
	Status     int     `json:"status"`     // 传感器对象检测状态
	Timestamp  int64   `json:"timestamp"`  // 采样时间（Unix 毫秒）
}

// HasSamples 窗口内是否有有效采样
func (r *VitalReport) HasSamples() bool {
	return r.SampleCount > 0
}
