package middleware

import (
	"net/http"

	"github.com/Bahjat/phishguard/backend/internal/platform/requestid"
)

// RequestID tags each request with an ID taken from X-Request-ID when the
// client sent a well-formed one, or a fresh UUID otherwise. The ID travels in
// the request context and is echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestid.Header)
		if !requestid.Valid(id) {
			id = requestid.New()
		}

		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.NewContext(r.Context(), id)))
	})
}
