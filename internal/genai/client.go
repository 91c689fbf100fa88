// Package genai is a lightweight facade over the Gemini generateContent
// REST API. It owns the wire envelope (contents, parts, generation config,
// safety settings, finish reasons) and leaves request assembly and
// interpretation to the callers.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// KeySource supplies the API key at call time so credential rotation does
// not require rebuilding the client.
type KeySource interface {
	GeminiAPIKey(ctx context.Context) (string, error)
}

// StaticKey adapts a fixed key to the KeySource contract.
type StaticKey string

func (k StaticKey) GeminiAPIKey(context.Context) (string, error) { return string(k), nil }

// Options controls how the Gemini client is configured.
type Options struct {
	Keys       KeySource
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client invokes models/<model>:generateContent against the
// generative-language endpoint.
type Client struct {
	keys       KeySource
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a Gemini client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with a long timeout will be
// created since image composition calls regularly run for tens of seconds.
func NewClient(opts Options) (*Client, error) {
	if opts.Keys == nil {
		return nil, errors.New("genai: key source is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-3-pro-image-preview"
	}

	return &Client{
		keys:       opts.Keys,
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     opts.Logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Content is one conversational turn in a generateContent request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part carries either text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData is base64 payload plus its media type.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// ImageConfig holds output framing hints.
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// GenerationConfig tunes the model invocation.
type GenerationConfig struct {
	Temperature *float64     `json:"temperature,omitempty"`
	ImageConfig *ImageConfig `json:"imageConfig,omitempty"`
}

// SafetySetting overrides a single content-category blocking threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Request is the generateContent payload.
type Request struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
}

// Candidate is one returned generation alternative.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Response is the decoded generateContent result.
type Response struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

// FirstInlineImage scans content fragments in order and returns the base64
// payload of the first fragment carrying inline image data. Additional
// image fragments are ignored.
func (r Response) FirstInlineImage() (string, bool) {
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return part.InlineData.Data, true
			}
		}
	}
	return "", false
}

// JoinedText concatenates all text fragments across candidates, used to
// surface refusals or commentary when no image came back.
func (r Response) JoinedText() string {
	var b strings.Builder
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// SafetyBlocked reports whether the response carries a safety-filter finish
// reason or prompt block instead of content.
func (r Response) SafetyBlocked() bool {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return true
	}
	for _, candidate := range r.Candidates {
		switch candidate.FinishReason {
		case "SAFETY", "IMAGE_SAFETY", "PROHIBITED_CONTENT":
			return true
		}
	}
	return false
}

type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// APIError is a non-2xx reply from the backend.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini status %d", e.StatusCode)
}

// IsPermissionDenied reports whether err indicates an invalid or
// unauthorized credential: an explicit 403, or the not-found reply the API
// returns for keys scoped to a different project.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusForbidden {
		return true
	}
	return strings.Contains(apiErr.Message, "Requested entity was not found")
}

// GenerateContent sends one request and decodes the reply. It never retries.
func (c *Client) GenerateContent(ctx context.Context, req Request) (Response, error) {
	apiKey, err := c.keys.GeminiAPIKey(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("resolve api key: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("invoke gemini: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: httpResp.StatusCode}
		var envelope apiErrorEnvelope
		if jsonErr := json.Unmarshal(raw, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			apiErr.Status = envelope.Error.Status
			apiErr.Message = envelope.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return Response{}, apiErr
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode gemini response: %w", err)
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("candidates", len(decoded.Candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("genai: generateContent completed")

	return decoded, nil
}
