package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"vton/internal/catalog"
	"vton/internal/credentials"
	"vton/internal/domain"
	"vton/internal/shop"
	"vton/internal/vton"
)

// Codec is the slice of the image codec the handlers need for subject
// uploads.
type Codec interface {
	EncodeFromURL(ctx context.Context, url string) (string, error)
	EncodeFromFile(filename, mediaType string, r io.Reader) (string, error)
}

// App is the handler container wired by cmd/api.
type App struct {
	Catalog     *catalog.Store
	Cart        *shop.Cart
	Selection   *shop.Selection
	Sessions    *vton.Manager
	Credentials *credentials.Store
	Gate        *credentials.Gate
	Codec       Codec

	DefaultModelURL string
	Logger          zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// fail maps domain errors onto the HTTP surface.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrCodec):
		a.error(w, http.StatusBadGateway, "codec_failed", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("handlers: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
