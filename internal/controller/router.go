package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharetube/embed/internal/document"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Handle("/metrics", promhttp.Handler())
	r.Get(document.BridgeScriptPath, c.bridgeScript)
	r.With(c.pageIdMw).Get("/pages/{page-id}", c.renderPage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", c.listPages)
			r.Post("/", c.createPage)
			r.Route("/{page-id}", func(r chi.Router) {
				r.Use(c.pageIdMw)
				r.Get("/", c.getPage)
				r.Delete("/", c.deletePage)
				r.Post("/load", c.loadScript)
				r.Route("/players", func(r chi.Router) {
					r.Post("/", c.addPlayer)
					r.Route("/{element-id}", func(r chi.Router) {
						r.Use(c.elementIdMw)
						r.Get("/", c.getPlayerStatus)
						r.Delete("/", c.removePlayer)
						r.Put("/video", c.setPlayerVideo)
						r.Post("/{toggle}", c.togglePlayer)
					})
				})
			})
		})

		r.Route("/ws", func(r chi.Router) {
			r.With(c.pageIdMw).Get("/pages/{page-id}", c.connectPage)
		})
	})

	return r
}
