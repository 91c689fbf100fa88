package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type garmentRef struct {
	GarmentID string `json:"garment_id"`
}

func (a *App) CartList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Cart.Items()})
}

func (a *App) CartAdd(w http.ResponseWriter, r *http.Request) {
	var req garmentRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GarmentID == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "garment_id is required")
		return
	}
	garment, err := a.Catalog.GetByID(r.Context(), req.GarmentID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.Cart.Add(*garment)
	a.json(w, http.StatusCreated, map[string]any{"items": a.Cart.Items()})
}

func (a *App) CartRemove(w http.ResponseWriter, r *http.Request) {
	a.Cart.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) SelectionList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Selection.Items()})
}

func (a *App) SelectionToggle(w http.ResponseWriter, r *http.Request) {
	var req garmentRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GarmentID == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "garment_id is required")
		return
	}
	garment, err := a.Catalog.GetByID(r.Context(), req.GarmentID)
	if err != nil {
		a.fail(w, err)
		return
	}
	selected := a.Selection.Toggle(*garment)
	a.json(w, http.StatusOK, map[string]any{
		"selected": selected,
		"items":    a.Selection.Items(),
	})
}

func (a *App) SelectionClear(w http.ResponseWriter, r *http.Request) {
	a.Selection.Clear()
	w.WriteHeader(http.StatusNoContent)
}
