package oasvalidation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// Config controls validation behavior. The zero value is a usable default.
type Config struct {
	// ForbidAdditionalProperties makes every object schema that does not
	// declare its own additionalProperties policy reject unknown fields.
	// Header and cookie schemas stay open either way.
	ForbidAdditionalProperties bool

	// AllowUnmatchedPaths makes [Validator.Handle] treat a request whose
	// path matches no declared template as valid instead of rejecting it.
	AllowUnmatchedPaths bool

	// Logger, when set, receives the fully mapped schema of every compiled
	// (operation, method) pair at Debug level.
	Logger *slog.Logger
}

// Validator validates requests and responses against one OpenAPI document.
// It is safe for concurrent use: compiled validators are cached per
// (path, method, status) and immutable once built.
type Validator struct {
	doc    *openapi3.T
	raw    map[string]any
	router routers.Router
	cfg    Config
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[cacheKey]*compiled
}

type cacheKey struct {
	path     string
	method   string
	status   int
	response bool
}

// New builds a Validator for doc. The document version must be in the 3.0.x
// range. The document must not be mutated after this call.
func New(doc *openapi3.T, cfg *Config) (*Validator, error) {
	if doc == nil {
		return nil, errors.New("document is required")
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.0.") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.OpenAPI)
	}

	raw, err := rawDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot snapshot document: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot build router: %w", err)
	}

	v := &Validator{
		doc:    doc,
		raw:    raw,
		router: router,
		cache:  map[cacheKey]*compiled{},
	}
	if cfg != nil {
		v.cfg = *cfg
	}
	v.logger = v.cfg.Logger
	return v, nil
}

// rawDocument snapshots the document as decoded JSON so $ref pointers can be
// followed with a plain pointer lookup.
func rawDocument(doc *openapi3.T) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeJSON(b)
	if err != nil {
		return nil, err
	}
	raw, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is not an object")
	}
	return raw, nil
}

// operation resolves a declared path template and method to its operation.
func (v *Validator) operation(method, path string) (*openapi3.PathItem, *openapi3.Operation, error) {
	if v.doc.Paths == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	item := v.doc.Paths.Value(path)
	if item == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		return nil, nil, fmt.Errorf("%w: %s %s", ErrOperationNotFound, strings.ToLower(method), path)
	}
	return item, op, nil
}

func (v *Validator) requestValidator(method, path string) (*compiled, error) {
	key := cacheKey{path: path, method: strings.ToLower(method)}
	if c := v.cached(key); c != nil {
		return c, nil
	}
	item, op, err := v.operation(method, path)
	if err != nil {
		return nil, err
	}
	c, err := v.compileRequest(item, op, key.method)
	if err != nil {
		return nil, err
	}
	v.store(key, c)
	return c, nil
}

func (v *Validator) responseValidator(method, path string, status int) (*compiled, error) {
	key := cacheKey{path: path, method: strings.ToLower(method), status: status, response: true}
	if c := v.cached(key); c != nil {
		return c, nil
	}
	_, op, err := v.operation(method, path)
	if err != nil {
		return nil, err
	}
	c, err := v.compileResponse(op, key.method, status)
	if err != nil {
		return nil, err
	}
	v.store(key, c)
	return c, nil
}

func (v *Validator) cached(key cacheKey) *compiled {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cache[key]
}

func (v *Validator) store(key cacheKey, c *compiled) {
	v.mu.Lock()
	v.cache[key] = c
	v.mu.Unlock()
}

// RequestSchema returns the fully mapped schema the request validator for
// (method, path) was compiled from, for logging and debugging collaborators.
func (v *Validator) RequestSchema(method, path string) (map[string]any, error) {
	c, err := v.requestValidator(method, path)
	if err != nil {
		return nil, err
	}
	return c.mapped, nil
}

// ResponseSchema is the response-side counterpart of [Validator.RequestSchema].
func (v *Validator) ResponseSchema(method, path string, status int) (map[string]any, error) {
	c, err := v.responseValidator(method, path, status)
	if err != nil {
		return nil, err
	}
	return c.mapped, nil
}
