package router

import (
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/middleware"
	"github.com/go-chi/chi/v5"
)

func WizardRoutes(r chi.Router, h *handler.WizardHandler) {
	r.Route("/wizard", func(r chi.Router) {
		r.Post("/", h.Start)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Close)
			r.Post("/advance", h.Advance)
			r.Post("/retreat", h.Retreat)
			r.Post("/edit/{step}", h.Edit)
			r.Post("/reset", h.Reset)
			r.Post("/isbn-lookup", h.LookupISBN)
			r.Post("/locate", h.Locate)
			r.Post("/media", h.StageMedia)
			r.With(middleware.RequireAuth).Post("/submit", h.Submit)
		})
	})
}
