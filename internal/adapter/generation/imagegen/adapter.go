package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"resty.dev/v3"
)

// Adapter implements generation.ImageGenerator against an OpenAI-style
// images REST endpoint. The upstream is flaky enough to warrant a circuit
// breaker; retries stay with the scheduler, not this client.
type Adapter struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	model   string
	size    string
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewAdapter(cfg *config.Config) *Adapter {
	client := resty.New().
		SetBaseURL(cfg.ImageAPIBaseURL).
		SetAuthToken(cfg.ImageAPIKey).
		SetTimeout(60 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "imagegen",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures >= 3
		},
	})

	return &Adapter{
		client:  client,
		breaker: breaker,
		model:   cfg.ImageAPIModel,
		size:    "1024x1024",
	}
}

func (a *Adapter) Generate(ctx context.Context, prompt string) ([]byte, error) {
	result, err := a.breaker.Execute(func() (any, error) {
		return a.generate(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (a *Adapter) generate(ctx context.Context, prompt string) ([]byte, error) {
	var out imageResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(imageRequest{
			Model:          a.model,
			Prompt:         prompt,
			N:              1,
			Size:           a.size,
			ResponseFormat: "b64_json",
		}).
		SetResult(&out).
		SetError(&out).
		Post("/v1/images/generations")
	if err != nil {
		return nil, fmt.Errorf("image request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return nil, fmt.Errorf("image api: %s", out.Error.Message)
		}
		return nil, fmt.Errorf("image api: status %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("image api: empty response")
	}

	data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}
