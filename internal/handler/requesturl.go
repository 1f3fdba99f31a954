package handler

import (
	"net/http"
	"strings"
)

// requestURL rebuilds the absolute URL the client used, without the query.
// A configured base URL replaces the scheme and host seen on the request.
func (h *TodoHandler) requestURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL + r.URL.EscapedPath()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	return scheme + "://" + r.Host + r.URL.EscapedPath()
}
