// Package config loads the service configuration from an optional YAML file
// and environment variables, then validates it. The listen port has no
// default; start-up fails when none is configured.
package config
