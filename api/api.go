// Package api carries the OpenAPI document of the HTTP service.
package api

import _ "embed"

// OpenAPI is api/openapi.yaml, compiled into the binary.
//
//go:embed openapi.yaml
var OpenAPI []byte
