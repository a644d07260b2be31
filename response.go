package oasvalidation

import (
	"encoding/json"
	"fmt"
)

// Response is the transport-agnostic shape of an outgoing response.
type Response struct {
	StatusCode int            `json:"statusCode"`
	Headers    map[string]any `json:"headers"`
	Body       any            `json:"body"`
}

// ValidateResponse validates a response-like value against the response
// definition declared for its status code at (method, path). res may be a
// [Response] (or pointer), or a map using statusCode/status, body/data and
// headers keys. A value whose status, body, or headers cannot be determined
// fails fast with a [*ResponseShapeError] instead of being partially
// validated.
func (v *Validator) ValidateResponse(method, path string, res any) error {
	norm, err := normalizeResponse(res)
	if err != nil {
		return err
	}
	c, err := v.responseValidator(method, path, norm.StatusCode)
	if err != nil {
		return err
	}
	payload := map[string]any{
		partHeaders: lowerKeys(norm.Headers),
		partBody:    norm.Body,
	}
	return c.evaluate(payload)
}

func normalizeResponse(res any) (*Response, error) {
	switch r := res.(type) {
	case *Response:
		if r == nil {
			return nil, &ResponseShapeError{Reason: "response is nil"}
		}
		return normalizeStruct(r)
	case Response:
		return normalizeStruct(&r)
	case map[string]any:
		return normalizeMap(r)
	}
	return nil, &ResponseShapeError{Reason: fmt.Sprintf("unsupported response value of type %T", res)}
}

func normalizeStruct(r *Response) (*Response, error) {
	if r.StatusCode == 0 {
		return nil, &ResponseShapeError{Reason: "status code is missing"}
	}
	out := *r
	if out.Headers == nil {
		out.Headers = map[string]any{}
	}
	return &out, nil
}

// normalizeMap accepts the two conventional shapes: statusCode/body/headers
// and status/data/headers.
func normalizeMap(r map[string]any) (*Response, error) {
	status, ok := firstOf(r, "statusCode", "status")
	if !ok {
		return nil, &ResponseShapeError{Reason: "status code is missing"}
	}
	code, err := statusCode(status)
	if err != nil {
		return nil, err
	}

	body, ok := firstOf(r, "body", "data")
	if !ok {
		return nil, &ResponseShapeError{Reason: "body is missing"}
	}

	rawHeaders, ok := r["headers"]
	if !ok {
		return nil, &ResponseShapeError{Reason: "headers are missing"}
	}
	headers, ok := rawHeaders.(map[string]any)
	if !ok {
		return nil, &ResponseShapeError{Reason: fmt.Sprintf("headers have type %T", rawHeaders)}
	}

	return &Response{StatusCode: code, Headers: headers, Body: body}, nil
}

func firstOf(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func statusCode(v any) (int, error) {
	switch s := v.(type) {
	case int:
		return s, nil
	case int64:
		return int(s), nil
	case float64:
		return int(s), nil
	case json.Number:
		n, err := s.Int64()
		if err == nil {
			return int(n), nil
		}
	}
	return 0, &ResponseShapeError{Reason: fmt.Sprintf("status code has type %T", v)}
}
