package generation

import "context"

// TextGenerator derives episode text from a transcript.
type TextGenerator interface {
	Title(ctx context.Context, transcript string) (string, error)
	Summary(ctx context.Context, transcript string) (string, error)
	ImagePrompt(ctx context.Context, title, summary string) (string, error)
}

// ImageGenerator turns an image prompt into image bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
