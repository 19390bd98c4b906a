package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"tixup/internal/handlers"
	"tixup/internal/middleware"
)

func (s *Server) routes(
	cartHandler *handlers.CartHandler,
	checkoutHandler *handlers.CheckoutHandler,
	formatHandler *handlers.FormatHandler,
	healthHandler *handlers.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(s.logger))
	r.Use(middleware.RecoveryMiddleware(s.logger))
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(s.cfg.Server.AllowedOrigins)))
	r.Use(middleware.SecurityHeadersMiddleware)

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/healthz", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{id}", cartHandler.UpdateItem)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.GetCheckout)
			r.Post("/", checkoutHandler.SubmitCheckout)
		})

		r.Post("/format/{field}", formatHandler.FormatField)
		r.Post("/profile/validate", formatHandler.ValidateProfile)
	})

	return r
}
