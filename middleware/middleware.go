// Package middleware adapts net/http requests to the core validator,
// producing a proceed/reject outcome per request. The core stays free of
// transport concerns; this package owns the HTTP binding.
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	oasvalidation "github.com/Gobd/oasvalidation"
)

// Bodies larger than this are truncated before validation.
const maxBodySize = 10 << 20

// RejectFunc renders a validation or routing failure to the client.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware validates incoming requests before handing them to the next
// handler.
type Middleware struct {
	validator *oasvalidation.Validator
	reject    RejectFunc
}

// New wraps a validator. A nil reject falls back to [Reject].
func New(v *oasvalidation.Validator, reject RejectFunc) *Middleware {
	if reject == nil {
		reject = Reject
	}
	return &Middleware{validator: v, reject: reject}
}

// Wrap returns a handler that validates the request and either forwards it
// to next or rejects it.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := FromHTTP(r)
		if err == nil {
			err = m.validator.Handle(r.Method, r.URL.Path, req)
		}
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromHTTP extracts the validator's request shape from an HTTP request. The
// body is restored on r so downstream handlers can read it again. Path
// parameters are left nil; the validator fills them from the matched route.
func FromHTTP(r *http.Request) (*oasvalidation.Request, error) {
	query := map[string]any{}
	for name, values := range r.URL.Query() {
		if len(values) == 1 {
			query[name] = values[0]
		} else {
			query[name] = anySlice(values)
		}
	}

	headers := map[string]any{}
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	cookies := map[string]any{}
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	var body any
	if r.Body != nil && r.Body != http.NoBody {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			if err := dec.Decode(&body); err != nil {
				return nil, err
			}
		}
	}

	return &oasvalidation.Request{
		Query:   query,
		Headers: headers,
		Cookies: cookies,
		Body:    body,
	}, nil
}

// Reject is the default rejection writer: a JSON problem body with a status
// derived from the error kind.
func Reject(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	var verr *oasvalidation.ValidationError
	var syntaxErr *json.SyntaxError
	body := map[string]any{"error": err.Error()}
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body["failures"] = verr.Failures
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		status = http.StatusBadRequest
	case errors.Is(err, oasvalidation.ErrPathNotFound):
		status = http.StatusNotFound
	case errors.Is(err, oasvalidation.ErrOperationNotFound):
		status = http.StatusMethodNotAllowed
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
