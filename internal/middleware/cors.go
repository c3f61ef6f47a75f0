package middleware

import "net/http"

// CORS returns a middleware that allows cross-origin reads from any origin.
// The dashboard frontend may be served from a different host or port than the
// API, and video elements need Range and Content-Range across origins.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
			h.Set("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
