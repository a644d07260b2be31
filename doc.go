// Package oasvalidation validates HTTP request and response payloads against
// the operations declared in an OpenAPI 3.0 document.
//
// Build a [Validator] from a loaded document, then feed it transport-agnostic
// request and response shapes:
//
//	v, err := oasvalidation.New(doc, nil)
//	err = v.ValidateRequest("get", "/items/{id}", &oasvalidation.Request{
//	    Query:  map[string]any{"verbose": true},
//	    Params: map[string]any{"id": "5"},
//	})
//
// A nil error means the request may proceed; a [*ValidationError] carries the
// individual constraint failures and a rendered summary.
//
// Beyond plain schema checks the validator understands a small set of vendor
// keywords: x-empty (an empty leaf is encoded as [null]), x-range (a set of
// closed numeric intervals, OR-joined), x-key (composite-key uniqueness over
// arrays of objects) and readOnly enforcement on write requests. Keyword
// semantics depend on the HTTP method being validated; every compilation
// carries its own keyword configuration, so validators for different methods
// never share mutable state.
//
// Sub-packages:
//   - middleware: net/http adapter producing proceed/reject outcomes
package oasvalidation
