package httpprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"resty.dev/v3"
)

// Adapter implements source.ContentProber against the channel scraper's
// check endpoint.
type Adapter struct {
	client *resty.Client
}

type probeResponse struct {
	HasNewContent bool `json:"has_new_content"`
}

func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		client: resty.New().
			SetBaseURL(cfg.ScraperBaseURL).
			SetTimeout(15 * time.Second),
	}
}

func (a *Adapter) HasNewContent(ctx context.Context, configID string) (bool, error) {
	var out probeResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("config_id", configID).
		SetResult(&out).
		Get("/check")
	if err != nil {
		return false, fmt.Errorf("probe content source: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("probe content source: status %d", resp.StatusCode())
	}
	return out.HasNewContent, nil
}
