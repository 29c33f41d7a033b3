package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// DecodeJSON reads a request body into dst. An empty body decodes as {}.
// Decoding failures come back as *ValidationError so handlers can answer 400.
func DecodeJSON(r io.Reader, dst any) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		}
	}

	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return &ValidationError{Field: "dueDate", Message: "Invalid date"}
	}

	return &ValidationError{Message: "Invalid JSON body"}
}
