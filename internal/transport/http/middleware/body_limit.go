package middleware

import "net/http"

// BodyLimit caps request bodies on every method that can carry one. Bulk
// approval and bulk assignment payloads are the largest legitimate bodies, so
// the cap is configured with those in mind.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				if maxBytes > 0 && r.Body != nil {
					r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
