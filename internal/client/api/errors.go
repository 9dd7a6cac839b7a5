package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/mealkeeper/internal/common"
)

var (
	// ErrNetwork marks requests that never got a response.
	ErrNetwork = errors.New("network failure")

	// ErrUnauthorized is matched by 401 responses.
	ErrUnauthorized = common.ErrorUnauthorized
)

// HTTPError is a non-2xx API response.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}

// newHTTPError extracts a readable message from typical API error bodies:
// {"error": "..."}, {"detail": "..."} or a field → messages map.
func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{Status: status, Body: body}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := obj[key].(string); ok && s != "" {
			e.Message = s
			return e
		}
	}

	parts := make([]string, 0, len(obj))
	for field, v := range obj {
		switch msgs := v.(type) {
		case []any:
			for _, m := range msgs {
				parts = append(parts, fmt.Sprintf("%s: %v", field, m))
			}
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", field, msgs))
		}
	}
	slices.Sort(parts)
	e.Message = strings.Join(parts, "; ")
	return e
}
