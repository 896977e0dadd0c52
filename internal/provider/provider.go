// Package provider defines the recognition contract every text source
// (remote API or embedded engine) implements for the router.
package provider

import (
	"context"
	"encoding/base64"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/progress"
)

// Image is one photograph to recognize.
type Image struct {
	Data []byte
	MIME string // sniffed from Data when empty
	Name string // original file name, for logs only
}

// NewImage wraps data and sniffs its content type.
func NewImage(name string, data []byte) Image {
	return Image{Data: data, MIME: constants.SniffMIME(data), Name: name}
}

// ContentType returns MIME, sniffing Data when unset.
func (i Image) ContentType() string {
	if i.MIME != "" {
		return i.MIME
	}
	return constants.SniffMIME(i.Data)
}

// Base64 returns Data in standard base64.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Result is the verbatim text of one successful attempt.
type Result struct {
	Text       string
	Confidence float64 // 0..100
	Provider   string
}

// Provider recognizes text in an image. Implementations return errors built
// with common.Unavailable or common.Invalid; the router treats both the same.
type Provider interface {
	Name() string
	Recognize(ctx context.Context, img Image, rep *progress.Reporter) (Result, error)
}

// Incremental is implemented by providers that write their own milestones
// into the reporter (and drive its PREPROCESSING stage).
type Incremental interface {
	ReportsProgress() bool
}

// IsIncremental reports whether p emits its own progress.
func IsIncremental(p Provider) bool {
	i, ok := p.(Incremental)
	return ok && i.ReportsProgress()
}

// Func adapts a function to Provider.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, img Image, rep *progress.Reporter) (Result, error)
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) Recognize(ctx context.Context, img Image, rep *progress.Reporter) (Result, error) {
	return f.Fn(ctx, img, rep)
}
