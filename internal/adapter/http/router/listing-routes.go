package router

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ListingRoutes mounts the read and admin routes. queryTimeout bounds the
// marketplace queries when positive.
func ListingRoutes(r chi.Router, h *handler.ListingHandler, adminRole string, queryTimeout time.Duration) {
	bounded := func(r chi.Router) {
		if queryTimeout > 0 {
			r.Use(chimiddleware.Timeout(queryTimeout))
		}
	}

	r.Route("/listings", func(r chi.Router) {
		bounded(r)
		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/{id}", h.Get)
	})

	r.Route("/browse/{browseID}", func(r chi.Router) {
		bounded(r)
		r.Post("/query", h.BrowseQuery)
		r.Post("/refine", h.BrowseRefine)
		r.Delete("/", h.BrowseClose)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(adminRole))
		r.Patch("/admin/listings/{id}/status", h.UpdateStatus)
		r.Delete("/admin/listings/{id}", h.Delete)
	})
}
