package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *App) ProductsList(w http.ResponseWriter, r *http.Request) {
	garments, err := a.Catalog.ListAll(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"products": garments})
}

func (a *App) ProductGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	garment, err := a.Catalog.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, garment)
}

func (a *App) ProductsReload(w http.ResponseWriter, r *http.Request) {
	if err := a.Catalog.Reload(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	garments, err := a.Catalog.ListAll(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"products": garments})
}

func (a *App) ProductsClear(w http.ResponseWriter, r *http.Request) {
	if err := a.Catalog.Clear(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
