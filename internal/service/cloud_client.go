package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"wisefido-vitals/internal/models"
)

// CloudToken 厂家云认证 Token
type CloudToken struct {
	AppId     string `json:"appId"`
	SecureKey string `json:"secureKey"`
}

// CloudRequest 厂家云 API 请求
type CloudRequest struct {
	Token *CloudToken    `json:"token"`
	Data  map[string]any `json:"data"`
}

// CloudResponse 厂家云 API 响应
type CloudResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// CloudClient 厂家云 API 客户端
//
// 把上报窗口同步到厂家云端（可选功能，默认关闭）。
type CloudClient struct {
	httpClient *resty.Client
	token      *CloudToken
	logger     *zap.Logger
}

// NewCloudClient 创建厂家云客户端
func NewCloudClient(baseURL, appID, secretKey string, logger *zap.Logger) *CloudClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	token := &CloudToken{
		AppId:     appID,
		SecureKey: secretKey,
	}

	return &CloudClient{
		httpClient: client,
		token:      token,
		logger:     logger,
	}
}

// UploadReport 上传一个上报窗口
func (c *CloudClient) UploadReport(report *models.VitalReport) error {
	request := CloudRequest{
		Token: c.token,
		Data: map[string]any{
			"reportId":      report.ReportID,
			"deviceId":      report.DeviceID,
			"windowStart":   report.WindowStart,
			"windowEnd":     report.WindowEnd,
			"avgHeartRate":  report.AvgHeartRate,
			"avgSpo2":       report.AvgSpO2,
			"avgConfidence": report.AvgConfidence,
			"sampleCount":   report.SampleCount,
		},
	}

	var response CloudResponse
	resp, err := c.httpClient.R().
		SetBody(request).
		SetResult(&response).
		Post("/vitals/uploadReport")

	if err != nil {
		c.logger.Error("Cloud API call failed",
			zap.String("report_id", report.ReportID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call cloud API: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("cloud API returned HTTP %d", resp.StatusCode())
	}

	if response.Status != 0 {
		c.logger.Error("Cloud API returned error",
			zap.Int("status", response.Status),
			zap.String("msg", response.Msg),
		)
		return fmt.Errorf("cloud API error: status=%d msg=%s", response.Status, response.Msg)
	}

	c.logger.Debug("Uploaded report to cloud",
		zap.String("report_id", report.ReportID),
	)

	return nil
}
