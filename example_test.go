package oasvalidation_test

import (
	"errors"
	"fmt"

	v "github.com/Gobd/oasvalidation"
	"github.com/getkin/kin-openapi/openapi3"
)

const itemsSpec = `{
  "openapi": "3.0.3",
  "info": {"title": "items", "version": "1.0.0"},
  "paths": {
    "/items/{id}": {
      "get": {
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "verbose", "in": "query", "required": true, "schema": {"type": "boolean"}}
        ],
        "responses": {
          "200": {"description": "ok"},
          "default": {"description": "error"}
        }
      }
    }
  }
}`

func ExampleValidator_ValidateRequest() {
	doc, err := openapi3.NewLoader().LoadFromData([]byte(itemsSpec))
	if err != nil {
		fmt.Println(err)
		return
	}
	validator, err := v.New(doc, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	err = validator.ValidateRequest("get", "/items/{id}", &v.Request{
		Params: map[string]any{"id": "5"},
	})
	var verr *v.ValidationError
	if errors.As(err, &verr) {
		fmt.Println("rejected with", len(verr.Failures), "failure")
	}

	err = validator.ValidateRequest("get", "/items/{id}", &v.Request{
		Query:  map[string]any{"verbose": true},
		Params: map[string]any{"id": "5"},
	})
	fmt.Println("proceed:", err == nil)
	// Output:
	// rejected with 1 failure
	// proceed: true
}

func ExampleValidator_ValidateResponse() {
	doc, err := openapi3.NewLoader().LoadFromData([]byte(itemsSpec))
	if err != nil {
		fmt.Println(err)
		return
	}
	validator, err := v.New(doc, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	err = validator.ValidateResponse("get", "/items/{id}", &v.Response{
		StatusCode: 503,
		Body:       map[string]any{"message": "try later"},
	})
	fmt.Println("proceed:", err == nil)
	// Output: proceed: true
}
