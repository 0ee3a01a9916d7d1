// Package docs embeds the OpenAPI description of the HTTP API so the server
// can serve it from any working directory.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
