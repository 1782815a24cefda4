package handler

import (
	"net/http"

	"github.com/avensio/avensio-web/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. The limiter sits
// in front of the credential and contact endpoints; token-protected routes
// verify statelessly via the token service.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, tokens *service.TokenService, contact *service.ContactService, limiter *service.SlidingWindow) {
	authHandler := NewAuthHandler(auth)
	contactHandler := NewContactHandler(contact)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.Handle("POST /auth/register", RateLimit(limiter, http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("POST /auth/login", RateLimit(limiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.Handle("GET /auth/check-auth", RequireAuth(tokens, http.HandlerFunc(authHandler.HandleCheckAuth)))
	mux.Handle("POST /auth/logout", RequireAuth(tokens, http.HandlerFunc(authHandler.HandleLogout)))

	mux.Handle("POST /contact", RateLimit(limiter, http.HandlerFunc(contactHandler.HandleContact)))
}
