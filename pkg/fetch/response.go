package fetch

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Envelope is a received HTTP response with its body already read
type Envelope struct {
	// StatusCode is the numeric HTTP status
	StatusCode int

	// Status is the status line, e.g. "503 Service Unavailable"
	Status string

	// Header holds the response headers
	Header http.Header

	// Body is the decoded body: JSON data, a string, or []byte when buffering
	Body any

	// Raw is the body exactly as received
	Raw []byte
}

// IsSuccessStatus reports whether the status code is 2xx
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// Reason returns the reason phrase of the status line
func (e *Envelope) Reason() string {
	reason := strings.TrimPrefix(e.Status, strconv.Itoa(e.StatusCode))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}
	return reason
}

// decodeBody turns raw bytes into the envelope body.
// Structured data comes back only for valid JSON when not buffering.
func decodeBody(raw []byte, buffer bool) any {
	if buffer {
		return raw
	}

	var v any
	if err := sonic.ConfigStd.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}

// errorDetail returns the first non-empty errors[].detail string of a decoded body
func errorDetail(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	list, ok := obj["errors"].([]any)
	if !ok {
		return ""
	}

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if detail, ok := entry["detail"].(string); ok && detail != "" {
			return detail
		}
	}
	return ""
}

// describe renders the human-readable message for a received response
func describe(env *Envelope) string {
	if detail := errorDetail(env.Body); detail != "" {
		return detail
	}

	reason := env.Reason()
	if reason == "" {
		reason = string(env.Raw)
	}
	return strconv.Itoa(env.StatusCode) + " " + reason
}
