package router

import (
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/middleware"
	"github.com/go-chi/chi/v5"
)

func CartRoutes(r chi.Router, h *handler.CartHandler) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.Add)
		r.Delete("/items/{listingID}", h.Remove)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/sign-in", h.SignIn)
			r.Post("/checkout", h.Checkout)
		})
	})
}
