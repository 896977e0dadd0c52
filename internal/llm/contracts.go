// Package llm holds the contract shared by vision-model transcription
// providers: the JSON shape they must return, its schema, the prompt and the
// clean-up applied before validation.
package llm

import "context"

// Transcription is the normalized reply of a vision model.
type Transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"` // 0..100
}

// Generator sends one image to a model and returns its raw reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string, img []byte, mimeType string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, img []byte, mimeType string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, img []byte, mimeType string) (string, error) {
	return f(ctx, prompt, img, mimeType)
}
