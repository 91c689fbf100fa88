package vton

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"vton/internal/domain"
	"vton/internal/genai"
	"vton/internal/imaging"
)

// CredentialGate is the interactive key-selection capability. Prompting
// suspends the caller until the shopper resolves or dismisses it.
type CredentialGate interface {
	HasValidCredential(ctx context.Context) (bool, error)
	PromptForCredential(ctx context.Context) error
}

// aspectRatioHint fixes output framing to the storefront's portrait cards.
const aspectRatioHint = "3:4"

// systemInstruction describes the compositor persona at the request level,
// on top of the per-call prompt contract.
const systemInstruction = "You are a professional fashion photography compositor. You dress the given person in the given garments with photoreal fabric physics and studio-grade lighting. You always return an image."

// safetyOverrides disables the category blocks that false-positive on
// ordinary apparel, swimwear, and children's-wear imagery. Fixed constant,
// never user-controllable.
var safetyOverrides = []genai.SafetySetting{
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
}

type backend interface {
	GenerateContent(ctx context.Context, req genai.Request) (genai.Response, error)
}

// Client orchestrates one round trip to the generative backend.
type Client struct {
	api    backend
	gate   CredentialGate
	logger zerolog.Logger
}

func NewClient(api *genai.Client, gate CredentialGate, logger zerolog.Logger) *Client {
	return &Client{api: api, gate: gate, logger: logger}
}

// Submit composes one try-on image. The request carries the instruction
// text first, the subject image second, then each garment image in input
// order; the backend tells subject from garments purely by position. The
// generation call is made exactly once, with no retry.
func (c *Client) Submit(ctx context.Context, subjectImage string, garments []GarmentInput) (string, error) {
	// The gate is consulted on every call, even when a key looks cached,
	// so the integration can force rotation.
	if err := c.ensureCredential(ctx); err != nil {
		return "", err
	}

	parts := make([]genai.Part, 0, len(garments)+2)
	parts = append(parts, genai.Part{Text: BuildPrompt(garments)})
	parts = append(parts, genai.Part{InlineData: &genai.InlineData{
		MimeType: imaging.TransportMIME,
		Data:     imaging.StripTransportPrefix(subjectImage),
	}})
	for _, g := range garments {
		parts = append(parts, genai.Part{InlineData: &genai.InlineData{
			MimeType: imaging.TransportMIME,
			Data:     imaging.StripTransportPrefix(g.Image),
		}})
	}

	req := genai.Request{
		Contents:          []genai.Content{{Role: "user", Parts: parts}},
		SystemInstruction: &genai.Content{Parts: []genai.Part{{Text: systemInstruction}}},
		GenerationConfig: &genai.GenerationConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: aspectRatioHint},
		},
		SafetySettings: safetyOverrides,
	}

	resp, err := c.api.GenerateContent(ctx, req)
	if err != nil {
		if genai.IsPermissionDenied(err) {
			c.logger.Warn().Err(err).Msg("vton: credential rejected, reopening key selection")
			// Best-effort recovery; the original failure still propagates.
			if promptErr := c.gate.PromptForCredential(ctx); promptErr != nil {
				c.logger.Warn().Err(promptErr).Msg("vton: credential re-prompt failed")
			}
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if payload, ok := resp.FirstInlineImage(); ok {
		return imaging.ToDisplayable(payload), nil
	}

	if resp.SafetyBlocked() {
		return "", fmt.Errorf("%w: try a different photo", domain.ErrSafetyBlocked)
	}
	if text := resp.JoinedText(); text != "" {
		return "", fmt.Errorf("%w: model replied with text instead of an image: %s", domain.ErrGeneration, text)
	}
	return "", fmt.Errorf("%w: no image produced", domain.ErrGeneration)
}

func (c *Client) ensureCredential(ctx context.Context) error {
	ok, err := c.gate.HasValidCredential(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCredential, err)
	}
	if ok {
		return nil
	}
	if err := c.gate.PromptForCredential(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCredential, err)
	}
	return nil
}
