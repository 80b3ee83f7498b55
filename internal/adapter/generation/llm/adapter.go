package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
)

const (
	titleSystemPrompt = `You write episode titles for audio shows. Given a transcript,
respond with a single engaging title of at most 80 characters. Respond with
the title only, no quotes, no preamble.`

	summarySystemPrompt = `You write listener-facing episode descriptions. Given a
transcript, respond with a 2-4 sentence summary of what the episode covers.
Plain text only, no markdown, no preamble.`

	imagePromptSystemPrompt = `You write prompts for an image generation model. Given an
episode title and summary, respond with one vivid visual scene description
suitable as podcast cover art. No text or lettering in the scene. Respond
with the prompt only.`
)

// Adapter implements generation.TextGenerator on langchaingo.
type Adapter struct {
	llm       llms.Model
	modelName string
}

func NewAdapter(cfg *config.Config) (*Adapter, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Adapter{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

func (a *Adapter) Title(ctx context.Context, transcript string) (string, error) {
	title, err := a.generate(ctx, titleSystemPrompt, transcript)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	return strings.Trim(title, `"`), nil
}

func (a *Adapter) Summary(ctx context.Context, transcript string) (string, error) {
	summary, err := a.generate(ctx, summarySystemPrompt, transcript)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return summary, nil
}

func (a *Adapter) ImagePrompt(ctx context.Context, title, summary string) (string, error) {
	input := fmt.Sprintf("Title: %s\n\nSummary: %s", title, summary)
	prompt, err := a.generate(ctx, imagePromptSystemPrompt, input)
	if err != nil {
		return "", fmt.Errorf("generate image prompt: %w", err)
	}
	return prompt, nil
}

func (a *Adapter) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := a.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
