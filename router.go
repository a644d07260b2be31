package oasvalidation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/routers"
)

// Route matches an incoming request path against the declared path templates
// and returns the matched template plus the path parameters it captured. An
// unmatched path is [ErrPathNotFound]; a matched path with no operation for
// the method is [ErrOperationNotFound].
func (v *Validator) Route(method, path string) (string, map[string]string, error) {
	req, err := http.NewRequest(strings.ToUpper(method), path, nil)
	if err != nil {
		return "", nil, fmt.Errorf("cannot match path %q: %w", path, err)
	}
	route, params, err := v.router.FindRoute(req)
	if err != nil {
		switch {
		case errors.Is(err, routers.ErrPathNotFound):
			return "", nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		case errors.Is(err, routers.ErrMethodNotAllowed):
			return "", nil, fmt.Errorf("%w: %s %s", ErrOperationNotFound, strings.ToLower(method), path)
		}
		return "", nil, err
	}
	return route.Path, params, nil
}

// Handle routes a concrete request path to its operation and validates req
// against it with the lower-cased method. Unmatched paths proceed when
// Config.AllowUnmatchedPaths is set and are rejected otherwise.
func (v *Validator) Handle(method, path string, req *Request) error {
	template, params, err := v.Route(method, path)
	if err != nil {
		if v.cfg.AllowUnmatchedPaths && errors.Is(err, ErrPathNotFound) {
			return nil
		}
		return err
	}

	if req == nil {
		req = &Request{}
	}
	// The router already extracted the path parameters; fill them in when
	// the caller did not.
	if req.Params == nil && len(params) > 0 {
		clone := *req
		clone.Params = make(map[string]any, len(params))
		for name, val := range params {
			clone.Params[name] = val
		}
		req = &clone
	}
	return v.ValidateRequest(strings.ToLower(method), template, req)
}
