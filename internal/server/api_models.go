package server

import "github.com/raysh454/sitelens/internal/model"

// ScanRequestBody is the payload accepted by the scan endpoints.
type ScanRequestBody struct {
	URL             string `json:"url" example:"https://example.com"`
	DeepScan        bool   `json:"deepScan,omitempty" example:"false"`
	SkipScreenshots bool   `json:"skipScreenshots,omitempty" example:"false"`
	SkipWhois       bool   `json:"skipWhois,omitempty" example:"false"`
	// Mode is only read by /jobs/scan; the synchronous endpoints fix it.
	Mode string `json:"mode,omitempty" example:"basic"`
}

func (b ScanRequestBody) toModel() model.ScanRequest {
	return model.ScanRequest{
		URL:             b.URL,
		DeepScan:        b.DeepScan,
		SkipScreenshots: b.SkipScreenshots,
		SkipWhois:       b.SkipWhois,
		Mode:            model.ScanMode(b.Mode),
	}
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid URL format"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
