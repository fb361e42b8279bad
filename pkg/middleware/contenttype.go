package middleware

import (
	"mime"
	"net/http"

	"github.com/ironfuel/cartapi/pkg/httputil"
)

// ContentTypeJSON rejects POST, PUT and PATCH requests that declare a
// non-JSON Content-Type with 415. A missing Content-Type is accepted.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mt, _, err := mime.ParseMediaType(ct)
				if err != nil || mt != "application/json" {
					httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorEnvelope{
						Error: &httputil.ErrorResponse{
							Code:    "UNSUPPORTED_MEDIA_TYPE",
							Message: "Content-Type must be application/json",
						},
					})
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
