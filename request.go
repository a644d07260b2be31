package oasvalidation

import "strings"

// Request is the transport-agnostic shape of an incoming request. The
// transport binding fills the parts it has; nil maps count as empty. A nil
// Body means no body was sent.
type Request struct {
	Query         map[string]any `json:"query"`
	Headers       map[string]any `json:"headers"`
	Params        map[string]any `json:"params"`
	Cookies       map[string]any `json:"cookies,omitempty"`
	SignedCookies map[string]any `json:"signedCookies,omitempty"`
	Body          any            `json:"body,omitempty"`
}

// ValidateRequest validates req against the operation declared at the given
// path template and method. A nil return means the request may proceed; a
// [*ValidationError] means reject. Other errors are configuration errors.
func (v *Validator) ValidateRequest(method, path string, req *Request) error {
	c, err := v.requestValidator(method, path)
	if err != nil {
		return err
	}
	if req == nil {
		req = &Request{}
	}
	payload := map[string]any{
		partQuery:   orEmpty(req.Query),
		partHeaders: lowerKeys(req.Headers),
		partParams:  orEmpty(req.Params),
		partCookies: mergeCookies(req.Cookies, req.SignedCookies),
	}
	if req.Body != nil {
		payload[partBody] = req.Body
	}
	return c.evaluate(payload)
}

// mergeCookies overlays signed cookies on plain ones; a signed value wins on
// a key collision.
func mergeCookies(plain, signed map[string]any) map[string]any {
	out := make(map[string]any, len(plain)+len(signed))
	for k, v := range plain {
		out[k] = v
	}
	for k, v := range signed {
		out[k] = v
	}
	return out
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// lowerKeys lower-cases header names to match the compiled header schema.
func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
