// Package imaging converts displayable image references (URLs, uploaded
// files) into the transport form embedded in generation requests, and back.
//
// The transport form is a data URL: a self-describing media-type prefix,
// a comma, then the base64 payload. Sources are normalized to JPEG at a
// fixed quality so downstream consumers never branch on source format.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"vton/internal/domain"
)

// jpegQuality mirrors the 0.95 canvas quality the storefront always used.
const jpegQuality = 95

// TransportMIME is the media type every normalized transport value declares.
const TransportMIME = "image/jpeg"

// Codec fetches, normalizes, and re-wraps image payloads.
type Codec struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewCodec(client *http.Client, logger zerolog.Logger) *Codec {
	if client == nil {
		client = http.DefaultClient
	}
	return &Codec{httpClient: client, logger: logger}
}

// EncodeFromURL fetches url and re-encodes the image as normalized JPEG
// transport. When the bytes cannot be decoded (unsupported raster format,
// truncated payload) it falls back to wrapping the fetched bytes with their
// original media type; only when the fetch itself fails does it return an
// empty transport alongside a codec error.
func (c *Codec) EncodeFromURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrCodec, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", domain.ErrCodec, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: fetch %s: status %d", domain.ErrCodec, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrCodec, url, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: fetch %s: empty body", domain.ErrCodec, url)
	}

	if normalized, err := normalizeJPEG(data); err == nil {
		return normalized, nil
	} else {
		c.logger.Debug().Err(err).Str("url", url).Msg("imaging: normalization failed, keeping source encoding")
	}

	// Fallback keeps the original encoding; the prompt assembly strips the
	// prefix regardless of the declared media type.
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return ToDataURL(mime, data), nil
}

// EncodeFromFile reads an uploaded file into transport form. The declared
// media type is checked before any bytes are read.
func (c *Codec) EncodeFromFile(filename, mediaType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q is not an image upload (%s)", domain.ErrInvalidInput, filename, mediaType)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read %q: %v", domain.ErrCodec, filename, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %q is empty", domain.ErrInvalidInput, filename)
	}

	if normalized, err := normalizeJPEG(data); err == nil {
		return normalized, nil
	}
	return ToDataURL(mediaType, data), nil
}

// StripTransportPrefix removes the self-describing prefix from a transport
// value, whatever media type it declares. Values without a delimiter are
// returned unchanged.
func StripTransportPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

// ToDisplayable wraps a raw base64 payload back into a transport-form
// reference usable directly as a display source. Generated results always
// declare the normalized media type.
func ToDisplayable(payload string) string {
	return fmt.Sprintf("data:%s;base64,%s", TransportMIME, payload)
}

// ToDataURL wraps raw bytes with an explicit media type.
func ToDataURL(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

func normalizeJPEG(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return ToDataURL(TransportMIME, buf.Bytes()), nil
}
