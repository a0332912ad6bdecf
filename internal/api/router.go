package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func NewRouter(apiHandler *APIHandler, chatLimiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Use(RoleTagMiddleware)

		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Chat route, throttled to protect the provider key
		r.Group(func(r chi.Router) {
			r.Use(Throttle(chatLimiter))
			r.Post("/chat", apiHandler.ChatHandler)
		})

		// Product catalog routes
		r.Get("/products", apiHandler.ListProductsHandler)
		r.Post("/products", apiHandler.AddProductHandler)
		r.Delete("/products", apiHandler.DeleteProductHandler)

		// Chat session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", apiHandler.CreateSessionHandler)
			r.Get("/", apiHandler.ListSessionsHandler)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", apiHandler.GetSessionHandler)
				r.Delete("/", apiHandler.DeleteSessionHandler)
				r.Post("/messages", apiHandler.AppendMessageHandler)
				r.Post("/clear", apiHandler.ClearSessionHandler)
				r.Put("/name", apiHandler.RenameSessionHandler)
			})
		})

		// Shopping list routes
		r.Route("/shopping-list", func(r chi.Router) {
			r.Get("/", apiHandler.GetShoppingListHandler)
			r.Delete("/", apiHandler.ClearShoppingListHandler)
			r.Post("/items", apiHandler.AddShoppingItemsHandler)
			r.Post("/items/{itemID}/toggle", apiHandler.ToggleShoppingItemHandler)
		})
	})

	return r
}
