package api

import (
	"log"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"tokoassist/internal/auth"
)

// Throttle protects the upstream provider key with a shared token
// bucket. 429 responses carry the usual JSON message shape.
func Throttle(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeMessage(w, http.StatusTooManyRequests, "Too many requests, please slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RoleTagMiddleware reads the cosmetic login token, when present, purely
// for request logging. Nothing is gated on it.
func RoleTagMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if role, err := auth.RoleFromToken(tokenString); err == nil {
				log.Printf("%s %s as role %s", r.Method, r.URL.Path, role)
			}
		}
		next.ServeHTTP(w, r)
	})
}
