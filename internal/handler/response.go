package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

var errEmptyBody = errors.New("body must be a JSON object")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeNoContent answers 204. HTTP forbids a body on 204, so only the
// content type is sent.
func writeNoContent(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody decodes exactly one JSON object from the request body into a T.
// Type mismatches, trailing data, null and oversized bodies are all errors.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var zero T

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	var v *T
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, errEmptyBody
		}
		return zero, err
	}
	if v == nil {
		return zero, errEmptyBody
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return zero, fmt.Errorf("body must contain a single JSON object")
	}

	return *v, nil
}

// describeDecodeError turns a decodeBody error into a message for the client
// that does not leak Go type names.
func describeDecodeError(err error) string {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		sizeErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Sprintf("field %q must be %s", typeErr.Field, jsonKind(typeErr.Type))
	case errors.As(err, &typeErr):
		return errEmptyBody.Error()
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON: unexpected end of body"
	case errors.As(err, &sizeErr):
		return fmt.Sprintf("body must not exceed %d bytes", sizeErr.Limit)
	default:
		return err.Error()
	}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}

	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Bool:
		return "a boolean"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "a " + t.Kind().String()
	}
}
