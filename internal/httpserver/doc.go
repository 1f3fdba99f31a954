// Package httpserver wraps http.Server with listen address validation,
// configurable timeouts and graceful shutdown.
package httpserver
