// Package api carries the OpenAPI document for the coords REST surface.
package api

import _ "embed"

// OpenAPI is the raw openapi.yaml served at /docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
