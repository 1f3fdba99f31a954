// Package logger builds the service's structured logger. Production uses JSON
// output; every other environment gets the human-readable text format.
package logger
