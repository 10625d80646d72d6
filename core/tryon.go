package core

import (
	"context"
	"io"
)

type (
	// StyleOption is a makeup style suggested by the AI stylist.
	StyleOption struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		PreviewURL  string `json:"preview_url,omitempty"`
	}

	// StyleOverrides are per-feature adjustments applied on top of a selected style.
	StyleOverrides struct {
		StyleID   string `json:"style_id,omitempty"`
		Lipstick  string `json:"lipstick,omitempty"`
		Eyeshadow string `json:"eyeshadow,omitempty"`
		Blush     string `json:"blush,omitempty"`
		Eyeliner  string `json:"eyeliner,omitempty"`
	}

	// MakeupResult is the outcome of a virtual try-on generation.
	MakeupResult struct {
		ResultURL string   `json:"result_url"`
		Tutorials []string `json:"tutorials"`
		Courses   []string `json:"courses"`
	}

	// TryOnService is any service that can consult makeup styles and
	// generate a virtual try-on for a face photo.
	TryOnService interface {
		ConsultStyles(ctx context.Context, userRequest string) ([]StyleOption, error)
		GenerateMakeup(ctx context.Context, face io.Reader, filename string, overrides StyleOverrides) (MakeupResult, error)
	}
)
