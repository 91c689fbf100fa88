package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	configured, err := a.Gate.HasValidCredential(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"configured": configured})
}

// CredentialSet stores the Gemini API key and releases any generation
// blocked waiting for one.
func (a *App) CredentialSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.APIKey) == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "api_key is required")
		return
	}
	if err := a.Credentials.SetGeminiAPIKey(r.Context(), req.APIKey); err != nil {
		a.fail(w, err)
		return
	}
	a.Gate.Notify()
	a.json(w, http.StatusOK, map[string]bool{"configured": true})
}
