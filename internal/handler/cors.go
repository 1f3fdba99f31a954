package handler

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

const requestHeadersHeader = "Access-Control-Request-Headers"

var (
	collectionMethods = []string{http.MethodGet, http.MethodDelete, http.MethodPost, http.MethodPatch, http.MethodOptions}
	itemMethods       = []string{http.MethodGet, http.MethodDelete, http.MethodPatch, http.MethodOptions}
)

// corsPolicy is the CORS policy of one route.
type corsPolicy struct {
	cors *cors.Cors
}

// newCORS builds the policy for one route. Preflight requests are answered
// with 204 and never reach the route handler.
func newCORS(origins []string, methods []string) *corsPolicy {
	return &corsPolicy{
		cors: cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: methods,
			AllowedHeaders: []string{"Content-Type"},
		}),
	}
}

// Handler applies the policy to next. rs/cors only matches lowercase
// Access-Control-Request-Headers values, so they are lowercased first.
func (p *corsPolicy) Handler(next http.Handler) http.Handler {
	h := p.cors.Handler(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if values := r.Header.Values(requestHeadersHeader); len(values) > 0 {
			lowered := make([]string, len(values))
			for i, v := range values {
				lowered[i] = strings.ToLower(v)
			}
			r.Header[requestHeadersHeader] = lowered
		}

		h.ServeHTTP(w, r)
	})
}
