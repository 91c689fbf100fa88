package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"vton/internal/http/handlers"
	"vton/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(allowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/products", func(r chi.Router) {
		r.Get("/", app.ProductsList)
		r.Post("/reload", app.ProductsReload)
		r.Delete("/", app.ProductsClear)
		r.Get("/{id}", app.ProductGet)
	})

	r.Route("/v1/cart", func(r chi.Router) {
		r.Get("/", app.CartList)
		r.Post("/", app.CartAdd)
		r.Delete("/{id}", app.CartRemove)
	})

	r.Route("/v1/selection", func(r chi.Router) {
		r.Get("/", app.SelectionList)
		r.Post("/toggle", app.SelectionToggle)
		r.Delete("/", app.SelectionClear)
	})

	r.Route("/v1/credentials/gemini", func(r chi.Router) {
		r.Get("/", app.CredentialStatus)
		r.Put("/", app.CredentialSet)
	})

	r.Route("/v1/tryon/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Delete("/", app.SessionDelete)
			r.Post("/open", app.SessionOpen)
			r.Post("/gallery", app.SessionGallery)
			r.Post("/subject", app.SessionSubject)
			r.Post("/generate", app.SessionGenerate)
			r.Post("/navigate", app.SessionNavigate)
			r.Post("/retry", app.SessionRetry)
			r.Post("/close", app.SessionClose)
			r.Post("/dismiss-error", app.SessionDismissError)
		})
	})

	return r
}
